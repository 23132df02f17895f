package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pathtracer/internal/dynamo"
)

type WindowExport struct {
	Metadata   WindowMetadata `json:"metadata"`
	Times      []float64      `json:"times"`
	Variables  [][]float64    `json:"variables"`
	Parameters [][]float64    `json:"parameters"`
}

// ExportJSON writes a snapshot as one JSON document with column-aligned arrays.
func ExportJSON(w io.Writer, meta WindowMetadata, points []dynamo.Point) error {
	data := WindowExport{
		Metadata:   meta,
		Times:      make([]float64, len(points)),
		Variables:  make([][]float64, len(points)),
		Parameters: make([][]float64, len(points)),
	}
	for i, p := range points {
		data.Times[i] = p.T
		data.Variables[i] = p.Vars
		data.Parameters[i] = p.Params
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
