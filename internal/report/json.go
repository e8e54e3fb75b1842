package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/KaramelBytes/productpulse/internal/metrics"
)

// Envelope wraps engine results with run metadata for JSON export.
type Envelope struct {
	Meta
	Results *metrics.Results `json:"results"`
}

// WriteJSON encodes res and meta as indented JSON.
func WriteJSON(w io.Writer, res *metrics.Results, meta Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Envelope{Meta: meta, Results: res}); err != nil {
		return fmt.Errorf("encode report json: %w", err)
	}
	return nil
}
