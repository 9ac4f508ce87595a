package parser

import (
	"strconv"

	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/record"
)

// DefaultMetricName names single-metric files when Options.MetricName is empty.
const DefaultMetricName = "score"

type denseParser struct{}

func (denseParser) Kind() format.Kind { return format.Dense }

// Parse reads row i, column j as the directed score (row i, column j).
// Diagonal cells are validated but not recorded.
func (denseParser) Parse(t *format.Table, idx *record.Index, opts Options) (*Result, error) {
	layout, err := format.InspectDense(t)
	if err != nil {
		return nil, err
	}

	name := opts.MetricName
	if name == "" {
		name = DefaultMetricName
	}
	res := &Result{Kind: format.Dense, Partials: make(map[string]*Partial, 1)}
	p := res.addMetric(name)
	r := resolver{idx: idx, auto: opts.AutoRecords, stats: &res.Stats}

	if !layout.Labeled {
		if err := parseUnlabeled(t, r, p, &res.Stats); err != nil {
			return nil, err
		}
		return res, nil
	}

	header := t.Rows[0]
	offset := len(header.Cells) - layout.Columns
	cols := make([]record.Handle, layout.Columns)
	seenCols := make(map[record.Handle]struct{}, layout.Columns)
	for j, id := range layout.ColumnLabels {
		h, err := r.resolve(id, header.Line, j+offset)
		if err != nil {
			return nil, err
		}
		if _, dup := seenCols[h]; dup {
			return nil, rowErr(header.Line, j+offset, nil, "duplicate column identifier %q", id)
		}
		seenCols[h] = struct{}{}
		cols[j] = h
	}

	seenRows := make(map[record.Handle]struct{}, len(t.Rows)-1)
	for _, row := range t.Rows[1:] {
		res.Stats.Rows++
		if len(row.Cells)-1 > layout.Columns {
			return nil, rowErr(row.Line, -1, nil, "row has %d scores, header declares %d", len(row.Cells)-1, layout.Columns)
		}
		a, err := r.resolve(row.Cell(0), row.Line, 0)
		if err != nil {
			return nil, err
		}
		if _, dup := seenRows[a]; dup {
			return nil, rowErr(row.Line, 0, nil, "duplicate row identifier %q", row.Cell(0))
		}
		seenRows[a] = struct{}{}

		for j, b := range cols {
			// Short rows are padded with missing cells.
			s, err := parseScore(row.Cell(j+1), row.Line, j+1, &res.Stats)
			if err != nil {
				return nil, err
			}
			if a == b {
				res.Stats.SelfPairs++
				continue
			}
			p.Add(Entry{A: a, B: b, Score: s, Line: row.Line})
		}
	}
	return res, nil
}

// parseUnlabeled maps the rows and columns of a square numeric block to
// handles 0..n-1. An empty index is filled with records named "0".."n-1"
// when AutoRecords is set.
func parseUnlabeled(t *format.Table, r resolver, p *Partial, st *Stats) error {
	n := len(t.Rows)
	if r.idx.Len() == 0 && r.auto {
		for i := range n {
			if _, err := r.resolve(strconv.Itoa(i), t.Rows[0].Line, -1); err != nil {
				return err
			}
		}
	}
	if r.idx.Len() != n {
		return rowErr(t.Rows[0].Line, -1, record.ErrUnknownRecord,
			"unlabeled grid has %d rows, index holds %d records", n, r.idx.Len())
	}

	for i, row := range t.Rows {
		st.Rows++
		for j := range n {
			s, err := parseScore(row.Cell(j), row.Line, j, st)
			if err != nil {
				return err
			}
			if i == j {
				st.SelfPairs++
				continue
			}
			p.Add(Entry{A: record.Handle(i), B: record.Handle(j), Score: s, Line: row.Line})
		}
	}
	return nil
}
