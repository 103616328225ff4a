// Package simconfig implements the dotted configuration-key store spec.md
// §6 lists ("sim.chp.default_delay", "sim.device.timescale", ...): a flat
// Store loaded from YAML (teacher core/program.go's own file format already
// depends on gopkg.in/yaml.v3), with typed accessors and a fluent Builder
// modeled on the teacher's config.DeviceBuilder.
package simconfig

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store is an immutable-after-construction set of dotted configuration
// keys, each holding a scalar value read back through a typed accessor.
// Keys are plain strings ("sim.chp.default_delay") rather than a nested
// struct, since spec.md §6's key list is "not exhaustive" and per-process
// per-statement keys (`sim.chp.<process>.<id>.D`) are generated at
// elaboration time rather than known up front.
type Store struct {
	values map[string]string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Set installs key := value, overwriting any previous value. Values are
// stored as their YAML scalar text and parsed on read, so one Store can
// answer Int64/Float64/Bool/String queries against the same key without
// the caller picking a type up front.
func (s *Store) Set(key, value string) { s.values[key] = value }

// Has reports whether key has an explicit value.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// String returns key's raw value, or def if unset.
func (s *Store) String(key, def string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Int64 parses key's value as a base-10 integer, or returns def if unset
// or unparseable.
func (s *Store) Int64(key string, def int64) int64 {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Float64 parses key's value as a float, or returns def if unset or
// unparseable.
func (s *Store) Float64(key string, def float64) float64 {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Bool parses key's value (spec.md §6 writes its flags as "0/1"), or
// returns def if unset or unparseable. "0"/"false" are false; "1"/"true"
// are true; anything else falls back to def.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	switch v {
	case "0", "false", "False", "FALSE":
		return false
	case "1", "true", "True", "TRUE":
		return true
	default:
		return def
	}
}

// StatementKey builds the per-statement annotation key spec.md §6 names:
// `sim.chp.<process>.<id>.<field>` (field is "D", "D_bw", or "E").
func StatementKey(process, id, field string) string {
	return fmt.Sprintf("sim.chp.%s.%s.%s", process, id, field)
}

// LoadFile reads path as YAML and merges it into a fresh Store. The
// document may be either a flat mapping of dotted keys to scalars, or an
// arbitrarily nested mapping (e.g. sim: {chp: {default_delay: 5}}), which
// is flattened into dotted keys on load — both forms describe the same
// key space.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simconfig: reading %q: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("simconfig: parsing %q: %w", path, err)
	}
	s := NewStore()
	flatten("", doc, s)
	return s, nil
}

func flatten(prefix string, node map[string]any, out *Store) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		default:
			out.Set(key, scalarText(val))
		}
	}
}

func scalarText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}
