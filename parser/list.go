package parser

import (
	"github.com/hupe1980/vemos/format"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

type listParser struct {
	kind format.Kind
}

func (l listParser) Kind() format.Kind { return l.kind }

// Parse reads one directed entry per metric column per row. The
// ground-truth cell of a row applies to the entries of every metric.
func (l listParser) Parse(t *format.Table, idx *record.Index, opts Options) (*Result, error) {
	layout, err := format.InspectList(t)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: layout.Kind(), Partials: make(map[string]*Partial, len(layout.Metrics))}
	r := resolver{idx: idx, auto: opts.AutoRecords, stats: &res.Stats}

	headerLine := t.Rows[0].Line
	for i, name := range layout.Metrics {
		if !layout.HasHeader {
			name = opts.MetricName
			if name == "" {
				name = DefaultMetricName
			}
		}
		if name == "" {
			return nil, rowErr(headerLine, i+2, nil, "blank metric name")
		}
		if _, dup := res.Partials[name]; dup {
			return nil, rowErr(headerLine, i+2, nil, "duplicate metric name %q", name)
		}
		res.addMetric(name)
	}
	if len(t.Rows) <= layout.DataRows() {
		return nil, rowErr(headerLine, -1, format.ErrEmptyFile, "header without data rows")
	}

	for _, row := range t.Rows[layout.DataRows():] {
		res.Stats.Rows++
		if err := l.parseRow(row, layout, r, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (l listParser) parseRow(row format.Row, layout format.ListLayout, r resolver, res *Result) error {
	if len(row.Cells) < 3 {
		return rowErr(row.Line, -1, nil, "row has %d cells, want at least 3", len(row.Cells))
	}
	for i := layout.Width; i < len(row.Cells); i++ {
		if row.Cells[i] != "" {
			return rowErr(row.Line, i, nil, "row has %d cells, header declares %d", len(row.Cells), layout.Width)
		}
	}

	a, err := r.resolve(row.Cells[0], row.Line, 0)
	if err != nil {
		return err
	}
	b, err := r.resolve(row.Cells[1], row.Line, 1)
	if err != nil {
		return err
	}

	truth := scorestore.Unknown
	if layout.TruthColumn >= 0 {
		truth, err = scorestore.ParseTruth(row.Cell(layout.TruthColumn))
		if err != nil {
			return rowErr(row.Line, layout.TruthColumn, err, "invalid ground truth marker %q", row.Cell(layout.TruthColumn))
		}
	}

	scores := make([]Score, len(res.Metrics))
	for i := range res.Metrics {
		s, err := parseScore(row.Cell(i+2), row.Line, i+2, &res.Stats)
		if err != nil {
			return err
		}
		scores[i] = s
	}

	if a == b {
		res.Stats.SelfPairs++
		return nil
	}
	for i, name := range res.Metrics {
		e := Entry{A: a, B: b, Score: scores[i], Truth: truth, Line: row.Line}
		if !res.Partials[name].Add(e) {
			prev, _ := res.Partials[name].Get(a, b)
			return rowErr(row.Line, -1, nil, "duplicate pair (%s, %s), first seen on line %d",
				row.Cells[0], row.Cells[1], prev.Line)
		}
	}
	return nil
}
