package query

import (
	"encoding/json"
	"fmt"
)

// Projection selects output fields by their JSON names. Include wins over
// Exclude; "id" is always kept.
type Projection struct {
	Include []string
	Exclude []string
}

// Apply renders v (a record) as a JSON object restricted to the projection.
func (p Projection) Apply(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("project: marshal: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("project: record is not an object: %w", err)
	}

	if len(p.Include) > 0 {
		keep := map[string]bool{"id": true}
		for _, f := range p.Include {
			keep[f] = true
		}
		for k := range doc {
			if !keep[k] {
				delete(doc, k)
			}
		}
		return doc, nil
	}
	for _, f := range p.Exclude {
		delete(doc, f)
	}
	return doc, nil
}

// ApplyAll projects every record of a page.
func ApplyAll[T any](p Projection, items []T) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		doc, err := p.Apply(it)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
