package library

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Entry is one raw manifest record. Fields are kept untyped so that a
// wrongly typed value normalizes like a missing one.
type Entry map[string]any

func (e Entry) str(key string) string {
	s, _ := e[key].(string)
	return s
}

// Normalize turns raw manifest records into documents, keeping their order.
func Normalize(entries []Entry) []*Document {
	return lo.Map(entries, func(e Entry, _ int) *Document {
		return NewDocument(e.str("title"), ParseKind(e.str("type")), e.str("path"))
	})
}

// ParseManifest decodes a JSON manifest. Anything other than an array
// yields an empty shelf; array items that are not objects are skipped.
func ParseManifest(data []byte) ([]*Document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	items, ok := raw.([]any)
	if !ok {
		return []*Document{}, nil
	}

	entries := lo.FilterMap(items, func(item any, _ int) (Entry, bool) {
		m, ok := item.(map[string]any)
		return Entry(m), ok
	})
	return Normalize(entries), nil
}
