package training

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/internal/codepoint"
)

// PartialExampleReader reads blank-line-terminated partial-example
// records from a comma-separated text source. A record's first line may
// be a "# comment" line; a single-field line is a free (unconstrained)
// surface chunk; a line starting with an empty field is a constrained
// node, "<surface>,<field>:<value>,...".
type PartialExampleReader struct {
	spec     *analysis.DictionarySpec
	filename string
	sc       *bufio.Scanner
	f        *os.File
	lineNo   int
}

// NewPartialExampleReader returns a reader that resolves tag field names
// and values against spec.
func NewPartialExampleReader(spec *analysis.DictionarySpec) *PartialExampleReader {
	return &PartialExampleReader{spec: spec}
}

// OpenFile points the reader at a file on disk.
func (r *PartialExampleReader) OpenFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: InvalidInput, Err: fmt.Errorf("open %s: %w", path, err)}
	}
	r.f = f
	r.filename = path
	r.sc = bufio.NewScanner(f)
	r.lineNo = 0
	return nil
}

// SetData points the reader at an in-memory dataset, useful for tests.
func (r *PartialExampleReader) SetData(data string) {
	r.filename = "<memory>"
	r.sc = bufio.NewScanner(strings.NewReader(data))
	r.lineNo = 0
}

// Close releases any file opened by OpenFile.
func (r *PartialExampleReader) Close() error {
	if r.f == nil {
		return nil
	}
	return r.f.Close()
}

// ReadExample reads one record. It returns (example, false, nil) after a
// record terminated by a blank line, (example, true, nil) for the last
// record in the source if the source ends without a trailing blank line,
// and (nil, true, nil) at a clean end of input with no pending record.
func (r *PartialExampleReader) ReadExample() (*PartialExample, bool, error) {
	ex := &PartialExample{File: r.filename}
	firstLine := true
	boundary := 2

	for r.sc.Scan() {
		r.lineNo++
		line := r.sc.Text()
		fields, err := splitFields(line)
		if err != nil {
			return nil, false, &Error{Kind: InvalidInput, File: r.filename, Line: r.lineNo, Err: err}
		}

		if firstLine {
			ex.Line = r.lineNo
			firstLine = false
			if len(fields) == 1 && len(fields[0]) > 2 && fields[0][0] == '#' && fields[0][1] == ' ' {
				ex.Comment = fields[0][2:]
				continue
			}
		}

		if len(fields) == 1 {
			data := fields[0]
			if data == "" {
				if n := len(ex.Boundaries); n > 0 {
					ex.Boundaries = ex.Boundaries[:n-1]
				}
				return ex, false, nil
			}
			cps, err := codepoint.Normalize(data)
			if err != nil {
				return nil, false, &Error{Kind: InvalidInput, File: r.filename, Line: r.lineNo, Err: err}
			}
			ex.Surface += data
			ex.Codepoints = append(ex.Codepoints, cps...)
			boundary += len(cps)
			ex.Boundaries = append(ex.Boundaries, boundary)
			continue
		}

		if fields[0] != "" {
			return nil, false, &Error{Kind: InvalidInput, File: r.filename, Line: r.lineNo,
				Err: fmt.Errorf("first field was not empty, but %q", fields[0])}
		}

		surface := fields[1]
		cps, err := codepoint.Normalize(surface)
		if err != nil {
			return nil, false, &Error{Kind: InvalidInput, File: r.filename, Line: r.lineNo, Err: err}
		}
		nc := NodeConstraint{Boundary: boundary, Length: len(cps)}
		boundary += len(cps)
		ex.Surface += surface
		ex.Codepoints = append(ex.Codepoints, cps...)
		ex.Boundaries = append(ex.Boundaries, boundary)

		for _, f := range fields[2:] {
			idx := strings.IndexByte(f, ':')
			if idx < 0 {
				return nil, false, &Error{Kind: InvalidInput, File: r.filename, Line: r.lineNo,
					Err: fmt.Errorf("entry %q did not contain a field name (<name>:<value>)", f)}
			}
			name, value := f[:idx], f[idx+1:]
			fs, ok := r.spec.Field(name)
			if !ok {
				return nil, false, &Error{Kind: InvalidInput, File: r.filename, Line: r.lineNo,
					Err: fmt.Errorf("field name %q not present in the dictionary spec", name)}
			}
			id, ok := fs.Resolve(value)
			if !ok {
				id = analysis.HashUnkString(value)
			}
			nc.Tags = append(nc.Tags, TagConstraint{Field: fs.Index, Value: id})
		}
		ex.Nodes = append(ex.Nodes, nc)
	}

	if err := r.sc.Err(); err != nil {
		return nil, true, &Error{Kind: InvalidInput, File: r.filename, Err: err}
	}
	if len(ex.Boundaries) == 0 && ex.Comment == "" {
		return nil, true, nil
	}
	return ex, true, nil
}

func splitFields(line string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	rec, err := cr.Read()
	if err == io.EOF {
		return []string{""}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
