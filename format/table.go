package format

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Whitespace is the delimiter reported for grids separated by runs of spaces
// or tabs mixed with spaces.
const Whitespace rune = 0

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one non-blank line of a score file.
type Row struct {
	// Line is the 1-based line number in the source.
	Line int
	// Cells holds the trimmed cell values.
	Cells []string
}

// Cell returns cell i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Table is a tokenized score file.
type Table struct {
	Delimiter rune
	Rows      []Row
}

// Tokenize splits data into rows and cells. The delimiter is sniffed from
// the first non-blank line: the most frequent of comma, tab and semicolon,
// or whitespace when none occurs. Blank lines are dropped.
func Tokenize(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	first := firstLine(data)
	if first == "" {
		return nil, ErrEmptyFile
	}

	t := &Table{Delimiter: sniffDelimiter(first)}
	var err error
	if t.Delimiter == Whitespace {
		t.Rows, err = splitWhitespace(data)
	} else {
		t.Rows, err = splitDelimited(data, t.Delimiter)
	}
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return t, nil
}

func firstLine(data []byte) string {
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		if s := strings.TrimSpace(string(line)); s != "" {
			return s
		}
	}
	return ""
}

func sniffDelimiter(line string) rune {
	best, bestCount := Whitespace, 0
	for _, d := range []rune{',', '\t', ';'} {
		if c := strings.Count(line, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func splitDelimited(data []byte, delim rune) ([]Row, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []Row
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		blank := true
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
			if fields[i] != "" {
				blank = false
			}
		}
		if blank && len(fields) == 1 {
			continue
		}
		rows = append(rows, Row{Line: line, Cells: fields})
	}
}

func splitWhitespace(data []byte) ([]Row, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, Row{Line: line, Cells: fields})
	}
	return rows, sc.Err()
}

// CellClass describes what a single cell holds.
type CellClass uint8

const (
	// Blank cells hold nothing, or a not-a-number marker.
	Blank CellClass = iota
	// Number cells parse as a float.
	Number
	// Truth cells hold a Y/N ground-truth marker.
	Truth
	// Text cells hold anything else, typically an identifier or label.
	Text
)

// Classify returns the class of a cell.
func Classify(cell string) CellClass {
	switch {
	case IsMissing(cell):
		return Blank
	case IsTruthMarker(cell):
		return Truth
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return Number
	}
	return Text
}

// IsMissing reports whether a cell denotes an absent score: empty, "nan" or "na".
func IsMissing(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "nan", "na":
		return true
	}
	return false
}

// IsTruthMarker reports whether cell is a Y/N ground-truth marker.
func IsTruthMarker(cell string) bool {
	switch cell {
	case "Y", "y", "N", "n":
		return true
	}
	return false
}

// ParseScore parses a score cell. ok is false for missing cells. Non-finite
// and non-numeric cells are errors.
func ParseScore(cell string) (v float64, ok bool, err error) {
	if IsMissing(cell) {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false, strconv.ErrRange
	}
	return v, true, nil
}
