package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// FoldLabel normalizes enum-like labels coming from clients or models.
// Casers carry state, so one is built per call.
func FoldLabel(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
