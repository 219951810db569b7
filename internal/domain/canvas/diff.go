package canvas

// ChangeKind classifies how one field differs between two versions.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeRemoved   ChangeKind = "removed"
	ChangeModified  ChangeKind = "modified"
	ChangeUnchanged ChangeKind = "unchanged"
)

// FieldDiff holds both sides of one field comparison.
type FieldDiff struct {
	Version1 string     `json:"version1"`
	Version2 string     `json:"version2"`
	Changed  bool       `json:"changed"`
	Kind     ChangeKind `json:"kind"`
}

// Diff maps every recognized field to its comparison.
type Diff map[Field]FieldDiff

// Compare diffs two payloads field by field with exact string equality.
// Absent fields compare as "".
func Compare(a, b Fields) Diff {
	out := make(Diff, len(AllFields))
	for _, name := range AllFields {
		va, vb := a.Get(name), b.Get(name)
		out[name] = FieldDiff{
			Version1: va,
			Version2: vb,
			Changed:  va != vb,
			Kind:     Classify(va, vb),
		}
	}
	return out
}

func Classify(a, b string) ChangeKind {
	switch {
	case a == b:
		return ChangeUnchanged
	case a == "":
		return ChangeAdded
	case b == "":
		return ChangeRemoved
	default:
		return ChangeModified
	}
}

// ChangedFields lists changed fields in display order.
func (d Diff) ChangedFields() []Field {
	out := make([]Field, 0)
	for _, name := range AllFields {
		if fd, ok := d[name]; ok && fd.Changed {
			out = append(out, name)
		}
	}
	return out
}

// Unchanged reports whether no field differs.
func (d Diff) Unchanged() bool {
	return len(d.ChangedFields()) == 0
}
