package domain

import (
	"strings"

	"github.com/knadh/koanf/maps"
)

// PathDelimiter separates the segments of a dotted context path ("host.name").
const PathDelimiter = "."

// Mapping is the tree-shaped context: string keys mapping to scalars or nested
// map[string]any values. Nested Mapping values are normalized to map[string]any
// on Set and Merge so that every level behaves the same way.
type Mapping map[string]any

// NewMapping returns an empty mapping.
func NewMapping() Mapping {
	return Mapping{}
}

// Get resolves a dotted path. It returns def when any segment is absent or
// when a segment walks through a non-map value.
func (m Mapping) Get(path string, def any) any {
	if v, ok := m.Lookup(path); ok {
		return v
	}

	return def
}

// Has reports whether a dotted path resolves. A key holding nil is present.
func (m Mapping) Has(path string) bool {
	_, ok := m.Lookup(path)
	return ok
}

// Lookup resolves a dotted path and reports whether it was found.
func (m Mapping) Lookup(path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}

	var current map[string]any = m
	segments := strings.Split(path, PathDelimiter)

	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return nil, false
		}

		if i == len(segments)-1 {
			return v, true
		}

		next, ok := asMap(v)
		if !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}

// Set writes value at a dotted path, creating intermediate maps as needed and
// replacing any non-map value found along the way. An empty path is ignored.
func (m Mapping) Set(path string, value any) {
	if m == nil || path == "" {
		return
	}

	var current map[string]any = m
	segments := strings.Split(path, PathDelimiter)

	for _, seg := range segments[:len(segments)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			next = map[string]any{}
		}
		current[seg] = next
		current = next
	}

	current[segments[len(segments)-1]] = normalize(value)
}

// Delete removes the value at a dotted path. Missing paths are ignored and
// parents left empty are removed too.
func (m Mapping) Delete(path string) {
	if m == nil || path == "" {
		return
	}

	maps.Delete(m, strings.Split(path, PathDelimiter))
}

// Merge deep-merges src into m. Where both sides hold a map the two are merged
// recursively; any other collision is won by src. src is copied first, so later
// mutation of src does not leak into m.
func (m Mapping) Merge(src Mapping) {
	if m == nil || len(src) == 0 {
		return
	}

	maps.Merge(src.Clone(), m)
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return Mapping{}
	}

	plain, _ := normalize(map[string]any(m)).(map[string]any)

	return Mapping(maps.Copy(plain))
}

// Flatten returns a single-level view keyed by dotted paths, e.g.
// {"host": {"name": "a"}} becomes {"host.name": "a"}.
func (m Mapping) Flatten() map[string]any {
	if len(m) == 0 {
		return map[string]any{}
	}

	flat, _ := maps.Flatten(m.Clone(), nil, PathDelimiter)

	return flat
}

// Len returns the number of top-level keys.
func (m Mapping) Len() int {
	return len(m)
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Mapping:
		return t, true
	default:
		return nil, false
	}
}

// normalize converts nested Mapping values into plain maps so that merging and
// searching never have to special-case the named type.
func normalize(v any) any {
	src, ok := asMap(v)
	if !ok {
		return v
	}

	out := make(map[string]any, len(src))
	for k, val := range src {
		out[k] = normalize(val)
	}

	return out
}
