package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agglutrain/latticecore/analysis"
)

// loadDictionaryCSV builds an in-memory Dictionary from a four-column CSV
// file: surface,POS,subPOS,baseForm. This is a convenience format for
// this command line only, not the production on-disk dictionary format,
// which is out of scope.
func loadDictionaryCSV(path string) (*analysis.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer f.Close()

	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 4
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dictionary %s: %w", path, err)
		}
		dict.Add(rec[0], rec[1], rec[2], rec[3])
	}
	return dict, nil
}
