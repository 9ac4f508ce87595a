package symmetrize

import (
	"github.com/hupe1980/vemos/metric"
	"github.com/hupe1980/vemos/parser"
	"github.com/hupe1980/vemos/record"
	"github.com/hupe1980/vemos/scorestore"
)

// slot collects the directed entries of one unordered pair.
type slot struct {
	first  parser.Entry
	second parser.Entry
	both   bool
}

// Symmetrize resolves the directed entries of p into a Store for m over idx.
//
// Pairs keep the orientation and position of their first directed entry.
// On error no Store is returned.
func Symmetrize(p *parser.Partial, m metric.Metric, idx *record.Index, r Reducer) (*scorestore.Store, error) {
	entries := p.Entries()
	slots := make([]slot, 0, len(entries))
	pos := make(map[uint64]int, len(entries))

	for _, e := range entries {
		k := pairKey(e.A, e.B)
		if i, ok := pos[k]; ok {
			// Partial admits each direction once, so this is the reverse.
			slots[i].second = e
			slots[i].both = true
			continue
		}
		pos[k] = len(slots)
		slots = append(slots, slot{first: e})
	}

	b := scorestore.NewBuilder(m, idx)
	for _, s := range slots {
		truth, err := resolveTruth(s, m, idx)
		if err != nil {
			return nil, err
		}

		v, ok := resolveValue(s, r)
		if ok {
			if err := b.Set(s.first.A, s.first.B, v); err != nil {
				return nil, err
			}
		}
		if err := b.SetTruth(s.first.A, s.first.B, truth); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// All symmetrizes every metric of res. Metric kinds are looked up with
// kindOf; a nil kindOf uses metric.Dissimilarity. Either every metric
// succeeds or none is returned.
func All(res *parser.Result, kindOf func(name string) metric.Kind, idx *record.Index, r Reducer) ([]*scorestore.Store, error) {
	stores := make([]*scorestore.Store, 0, len(res.Metrics))
	for _, name := range res.Metrics {
		kind := metric.Dissimilarity
		if kindOf != nil {
			kind = kindOf(name)
		}
		s, err := Symmetrize(res.Partials[name], metric.New(name, kind), idx, r)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}

func pairKey(a, b record.Handle) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

func resolveValue(s slot, r Reducer) (float64, bool) {
	first, second := s.first.Score, s.second.Score
	switch {
	case !s.both || !second.Present:
		return first.Value, first.Present
	case !first.Present:
		return second.Value, true
	default:
		return r.Reduce(first.Value, second.Value, s.first.A < s.first.B), true
	}
}

func resolveTruth(s slot, m metric.Metric, idx *record.Index) (scorestore.Truth, error) {
	t1 := s.first.Truth
	if !s.both {
		return t1, nil
	}
	t2 := s.second.Truth
	switch {
	case !t1.Known():
		return t2, nil
	case !t2.Known() || t1 == t2:
		return t1, nil
	default:
		return scorestore.Unknown, &GroundTruthConflictError{
			Metric: m.Name,
			A:      idx.ID(s.first.A),
			B:      idx.ID(s.first.B),
			Lines:  [2]int{s.first.Line, s.second.Line},
		}
	}
}
