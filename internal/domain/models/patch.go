package models

import (
	"encoding/json"
	"fmt"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

var alwaysProtected = []string{"id", "createdAt", "version"}

// ApplyPatch overlays a decoded JSON body on rec. Identity and bookkeeping
// fields, plus any named in protected, are ignored.
func ApplyPatch[T any](rec *T, patch map[string]any, protected ...string) error {
	if len(patch) == 0 {
		return nil
	}
	skip := make(map[string]bool, len(alwaysProtected)+len(protected))
	for _, k := range alwaysProtected {
		skip[k] = true
	}
	for _, k := range protected {
		skip[k] = true
	}

	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if !skip[k] {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return domain.ValidationError{Msg: "Invalid input data", Err: err}
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return domain.ValidationError{Msg: fmt.Sprintf("Invalid input data. %v", err), Err: err}
	}
	return nil
}
