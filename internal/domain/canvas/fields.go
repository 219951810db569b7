package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// Field names one of the eleven lean canvas cells.
type Field string

const (
	FieldProblem                Field = "problem"
	FieldCustomerSegments       Field = "customer_segments"
	FieldUniqueValueProposition Field = "unique_value_proposition"
	FieldSolution               Field = "solution"
	FieldChannels               Field = "channels"
	FieldRevenueStreams         Field = "revenue_streams"
	FieldCostStructure          Field = "cost_structure"
	FieldKeyMetrics             Field = "key_metrics"
	FieldUnfairAdvantage        Field = "unfair_advantage"
	FieldEarlyAdopters          Field = "early_adopters"
	FieldExistingAlternatives   Field = "existing_alternatives"
)

// AllFields lists every recognized field in display order.
var AllFields = []Field{
	FieldProblem,
	FieldCustomerSegments,
	FieldUniqueValueProposition,
	FieldSolution,
	FieldChannels,
	FieldRevenueStreams,
	FieldCostStructure,
	FieldKeyMetrics,
	FieldUnfairAdvantage,
	FieldEarlyAdopters,
	FieldExistingAlternatives,
}

var fieldIndex = func() map[Field]int {
	m := make(map[Field]int, len(AllFields))
	for i, f := range AllFields {
		m[f] = i
	}
	return m
}()

var (
	ErrUnknownField = errors.New("unknown canvas field")
	ErrFieldType    = errors.New("canvas field value must be a string")
)

// IsField reports whether name is a recognized canvas field.
func IsField(name string) bool {
	_, ok := fieldIndex[Field(name)]
	return ok
}

// Fields is a canvas payload. A missing key means the cell is absent.
type Fields map[Field]string

// ParseFields converts a loosely typed payload (decoded JSON) into Fields.
// Unknown keys and non-string values are rejected; null values are treated as absent.
// Keys must match exactly, so " problem" is unknown rather than an alias.
func ParseFields(raw map[string]any) (Fields, error) {
	out := make(Fields, len(raw))
	unknown := make([]string, 0)
	for k, v := range raw {
		if !IsField(k) {
			unknown = append(unknown, k)
			continue
		}
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[Field(k)] = val
		default:
			return nil, fmt.Errorf("%w: %s", ErrFieldType, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return out, nil
}

// Get returns the value of f, or "" when absent.
func (f Fields) Get(name Field) string {
	if f == nil {
		return ""
	}
	return f[name]
}

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Validate checks that every key is a recognized field.
func (f Fields) Validate() error {
	for k := range f {
		if _, ok := fieldIndex[k]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}
	return nil
}

// Complete returns a copy holding every field, absent ones as "".
func (f Fields) Complete() map[string]string {
	out := make(map[string]string, len(AllFields))
	for _, name := range AllFields {
		out[string(name)] = f.Get(name)
	}
	return out
}

// JSON encodes the payload for the details.fields column.
func (f Fields) JSON() (datatypes.JSON, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(f))
	for k, v := range f {
		m[string(k)] = v
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// FieldsFromJSON decodes a stored payload. Keys that are no longer recognized
// are dropped so older rows stay readable.
func FieldsFromJSON(raw datatypes.JSON) (Fields, error) {
	out := Fields{}
	if len(raw) == 0 {
		return out, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode canvas fields: %w", err)
	}
	for k, v := range m {
		if !IsField(k) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[Field(k)] = s
	}
	return out, nil
}
