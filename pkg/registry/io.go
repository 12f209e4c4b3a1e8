package registry

import (
	"encoding/json"
	"io"
	"os"
)

// rowWire mirrors Row for decoding. ComponentIndex is a pointer so an
// omitted index means "whole cabinet" (-1) instead of component 0.
type rowWire struct {
	Row
	ComponentIndex *int `json:"component_index"`
}

// ReadRows decodes a JSON array of registry rows. Rows exported by the
// upstream architecture tooling omit component_index for whole-cabinet
// requirements; those decode as -1.
func ReadRows(r io.Reader) ([]Row, error) {
	var wire []rowWire
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(wire))
	for _, w := range wire {
		row := w.Row
		row.ComponentIndex = -1
		if w.ComponentIndex != nil {
			row.ComponentIndex = *w.ComponentIndex
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadSnapshot reads a rows file and indexes it. A missing path returns an
// empty snapshot so tooling can run without registry data.
func LoadSnapshot(path string) (*Snapshot, error) {
	if path == "" {
		return NewSnapshot(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadRows(f)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(rows), nil
}
