// Package export writes simulation results in formats other tools read:
// a JSON document, CSV, static charts through gonum/plot and interactive
// HTML charts through go-echarts.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/san-kum/linsim/internal/sim"
)

// Document is a result plus enough metadata to re-run it.
type Document struct {
	RunID    string             `json:"run_id,omitempty"`
	Scenario string             `json:"scenario,omitempty"`
	Title    string             `json:"title,omitempty"`
	Dt       float64            `json:"dt"`
	TFinal   float64            `json:"t_final"`
	Seed     int64              `json:"seed"`
	Values   map[string]float64 `json:"values,omitempty"`
	Created  time.Time          `json:"created"`
	Result   *sim.Result        `json:"result"`
}

func WriteJSON(w io.Writer, doc *Document) error {
	if doc.Result == nil {
		return fmt.Errorf("document has no result")
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// ExportJSON writes doc to path, or to stdout when path is "-".
func ExportJSON(path string, doc *Document) error {
	if path == "-" {
		return WriteJSON(os.Stdout, doc)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, doc)
}

func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Result == nil {
		return nil, fmt.Errorf("document has no result")
	}
	return &doc, nil
}
