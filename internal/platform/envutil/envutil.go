package envutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source resolves settings from the process environment first and an optional
// flat YAML file second. The zero value reads the environment only.
type Source struct {
	file map[string]string
}

// Load reads a flat YAML mapping of setting names to scalars. A missing file
// yields an environment-only Source.
func Load(path string) (Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Source{}, nil
		}
		return Source{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Source, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Source{}, fmt.Errorf("parse config: %w", err)
	}
	file := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			file[key] = strings.Join(parts, ",")
		case map[string]any:
			return Source{}, fmt.Errorf("parse config: %s must be a scalar or list", k)
		default:
			file[key] = fmt.Sprint(val)
		}
	}
	return Source{file: file}, nil
}

// Export copies file values into the process environment for names the
// environment does not already set, so packages that read os.Getenv directly
// see the same settings.
func (s Source) Export() error {
	for k, v := range s.file {
		if strings.TrimSpace(os.Getenv(k)) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("export %s: %w", k, err)
		}
	}
	return nil
}

func (s Source) lookup(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[name])
}

func (s Source) String(name, def string) string {
	v := s.lookup(name)
	if v == "" {
		return def
	}
	return v
}

func (s Source) Int(name string, def int) int {
	v := s.lookup(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func (s Source) Float(name string, def float64) float64 {
	v := s.lookup(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (s Source) Bool(name string, def bool) bool {
	switch strings.ToLower(s.lookup(name)) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Seconds reads an integer number of seconds; non-positive values fall back to def.
func (s Source) Seconds(name string, def time.Duration) time.Duration {
	n := s.Int(name, -1)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// List splits a comma separated value, dropping empty entries.
func (s Source) List(name string, def []string) []string {
	v := s.lookup(name)
	if v == "" {
		return def
	}
	out := make([]string, 0, 4)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

var env Source

func String(name, def string) string { return env.String(name, def) }
func Int(name string, def int) int { return env.Int(name, def) }
func Float(name string, def float64) float64 { return env.Float(name, def) }
func Bool(name string, def bool) bool { return env.Bool(name, def) }
func Seconds(name string, def time.Duration) time.Duration { return env.Seconds(name, def) }
func List(name string, def []string) []string { return env.List(name, def) }
