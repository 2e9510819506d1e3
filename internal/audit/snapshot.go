package audit

import (
	"encoding/json"
	"fmt"

	"github.com/and161185/pontofacil/internal/model"
)

// EncodeSnapshot renders a snapshot column value; nil stays NULL.
func EncodeSnapshot(s *model.EventSnapshot) (*string, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	out := string(b)
	return &out, nil
}

// DecodeSnapshot parses a stored snapshot loosely. NULL, empty or corrupted
// columns yield nil so one bad row never hides the rest of the trail.
func DecodeSnapshot(col *string) map[string]any {
	if col == nil || *col == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(*col), &m); err != nil {
		return nil
	}
	return m
}
