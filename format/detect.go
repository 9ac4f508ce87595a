package format

import (
	"fmt"
	"strings"
)

// ListLayout describes the columns of a Sparse or Tabular file.
type ListLayout struct {
	// HasHeader is false for header-less single metric lists.
	HasHeader bool
	// Metrics holds the metric names of columns 2..2+len(Metrics).
	// A header-less list has one unnamed metric.
	Metrics []string
	// TruthColumn is the index of the ground-truth column, or -1.
	TruthColumn int
	// Width is the number of columns of a complete row.
	Width int
}

// Kind returns Sparse or Tabular depending on the metric count.
func (l ListLayout) Kind() Kind {
	if len(l.Metrics) > 1 {
		return Tabular
	}
	return Sparse
}

// DataRows returns the index of the first data row.
func (l ListLayout) DataRows() int {
	if l.HasHeader {
		return 1
	}
	return 0
}

// DenseLayout describes a Dense file.
type DenseLayout struct {
	// Labeled is false for unlabeled numeric blocks.
	Labeled bool
	// ColumnLabels holds the column identifiers of a labeled grid.
	ColumnLabels []string
	// Columns is the number of score columns.
	Columns int
}

// DataRows returns the index of the first data row.
func (d DenseLayout) DataRows() int {
	if d.Labeled {
		return 1
	}
	return 0
}

// Detect classifies raw file content.
func Detect(data []byte) (Kind, error) {
	t, err := Tokenize(data)
	if err != nil {
		return Unknown, err
	}
	return DetectTable(t)
}

// DetectTable classifies a tokenized file.
//
// Checks run in order: an unlabeled square numeric block is Dense; a header
// whose first two cells are blank, or rows starting with two identifiers
// followed by scores, form a list; a header of column identifiers above rows
// of one identifier plus scores is Dense.
func DetectTable(t *Table) (Kind, error) {
	if len(t.Rows) == 0 {
		return Unknown, ErrEmptyFile
	}
	if isNumericSquare(t) {
		return Dense, nil
	}
	if l, err := InspectList(t); err == nil {
		return l.Kind(), nil
	}
	if _, err := InspectDense(t); err == nil {
		return Dense, nil
	}
	return Unknown, ErrUnrecognizedFormat
}

// isNumericSquare reports whether every cell is a number or missing and the
// rows form a square block. The top-left cell must be a number: a blank
// corner marks a labeled grid with numeric identifiers.
func isNumericSquare(t *Table) bool {
	n := len(t.Rows)
	if n == 0 || Classify(t.Rows[0].Cell(0)) != Number {
		return false
	}
	for _, r := range t.Rows {
		if len(r.Cells) != n {
			return false
		}
		for _, c := range r.Cells {
			if cls := Classify(c); cls != Number && cls != Blank {
				return false
			}
		}
	}
	return true
}

// InspectList determines the list layout of t.
func InspectList(t *Table) (ListLayout, error) {
	if len(t.Rows) == 0 {
		return ListLayout{}, ErrEmptyFile
	}
	header := t.Rows[0]

	switch {
	case len(header.Cells) >= 3 && header.Cells[0] == "" && header.Cells[1] == "":
		// ",,Metric1,Metric2,...": the documented header.
	case len(header.Cells) >= 3 && isPairRow(header) && !isLabelRow(header):
		return inspectHeaderless(t)
	case len(header.Cells) >= 3 && isLabelRow(header):
		// "ID1,ID2,Metric1,...": identifiers named in the header. Only a
		// list if the first data row confirms two leading identifiers.
		if len(t.Rows) < 2 || !isPairRow(t.Rows[1]) {
			return ListLayout{}, fmt.Errorf("%w: header is not followed by pair rows", ErrUnrecognizedFormat)
		}
	default:
		return ListLayout{}, fmt.Errorf("%w: no pair list header", ErrUnrecognizedFormat)
	}

	width := len(header.Cells)
	l := ListLayout{HasHeader: true, TruthColumn: -1, Width: width}
	last := width - 1
	if last >= 3 && isTruthColumn(t.Rows[1:], last, header.Cells[last]) {
		l.TruthColumn = last
		l.Metrics = header.Cells[2:last]
	} else {
		l.Metrics = header.Cells[2:]
	}
	return l, nil
}

func inspectHeaderless(t *Table) (ListLayout, error) {
	width := 0
	for _, r := range t.Rows {
		width = max(width, len(r.Cells))
	}
	l := ListLayout{TruthColumn: -1, Width: width}
	last := width - 1
	if last >= 3 && isTruthColumn(t.Rows, last, "") {
		l.TruthColumn = last
	}
	metrics := width - 2
	if l.TruthColumn >= 0 {
		metrics--
	}
	if metrics != 1 {
		return ListLayout{}, fmt.Errorf("%w: header-less list with %d metric columns", ErrUnrecognizedFormat, metrics)
	}
	l.Metrics = []string{""}
	return l, nil
}

// isPairRow reports whether r starts with two identifiers followed by at
// least one score, blank or marker.
func isPairRow(r Row) bool {
	if len(r.Cells) < 3 {
		return false
	}
	if Classify(r.Cells[0]) != Text || Classify(r.Cells[1]) != Text {
		return false
	}
	switch Classify(r.Cells[2]) {
	case Number, Blank:
		return true
	}
	return false
}

// isLabelRow reports whether every cell of r is non-blank text.
func isLabelRow(r Row) bool {
	for _, c := range r.Cells {
		if Classify(c) != Text {
			return false
		}
	}
	return true
}

func isTruthLabel(s string) bool {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "ground truth", "groundtruth", "ground_truth", "gt", "truth":
		return true
	}
	return false
}

// isTruthColumn reports whether column col holds ground truth: either its
// header names it, or all non-blank cells are Y/N and at least one exists.
func isTruthColumn(rows []Row, col int, label string) bool {
	if isTruthLabel(label) {
		return true
	}
	seen := false
	for _, r := range rows {
		c := r.Cell(col)
		if c == "" {
			continue
		}
		if !IsTruthMarker(c) {
			return false
		}
		seen = true
	}
	return seen
}

// InspectDense determines the dense layout of t.
func InspectDense(t *Table) (DenseLayout, error) {
	if len(t.Rows) == 0 {
		return DenseLayout{}, ErrEmptyFile
	}
	if isNumericSquare(t) {
		return DenseLayout{Columns: len(t.Rows)}, nil
	}
	if len(t.Rows) < 2 {
		return DenseLayout{}, fmt.Errorf("%w: labeled grid needs a header and data rows", ErrUnrecognizedFormat)
	}

	first := t.Rows[1]
	if len(first.Cells) < 2 || Classify(first.Cells[0]) == Blank {
		return DenseLayout{}, fmt.Errorf("%w: first grid row has no identifier", ErrUnrecognizedFormat)
	}
	for _, c := range first.Cells[1:] {
		if cls := Classify(c); cls != Number && cls != Blank {
			return DenseLayout{}, fmt.Errorf("%w: first grid row is not numeric", ErrUnrecognizedFormat)
		}
	}

	cols := len(first.Cells) - 1
	header := t.Rows[0].Cells
	var labels []string
	switch len(header) {
	case cols + 1:
		// Corner cell (blank or a caption) before the column identifiers.
		// A numeric corner means the first line is data, not a header.
		if Classify(header[0]) == Number {
			return DenseLayout{}, fmt.Errorf("%w: numeric corner cell", ErrUnrecognizedFormat)
		}
		labels = header[1:]
	case cols:
		// Whitespace separated grids cannot express a blank corner.
		labels = header
	default:
		return DenseLayout{}, fmt.Errorf("%w: header has %d cells for %d columns", ErrUnrecognizedFormat, len(header), cols)
	}
	for _, l := range labels {
		if l == "" {
			return DenseLayout{}, fmt.Errorf("%w: blank column identifier", ErrUnrecognizedFormat)
		}
	}
	return DenseLayout{Labeled: true, ColumnLabels: labels, Columns: cols}, nil
}
