package scorestore

import (
	"github.com/hupe1980/vemos/record"
)

// TruthFunc resolves the ground truth of a record pair.
type TruthFunc func(a, b record.Handle) Truth

// RecordMatches derives truth from the match lists of the records in idx:
// a pair is a Match when either record lists the other, a NonMatch
// otherwise.
func RecordMatches(idx *record.Index) TruthFunc {
	return func(a, b record.Handle) Truth {
		ra, ok := idx.Record(a)
		if !ok {
			return Unknown
		}
		rb, ok := idx.Record(b)
		if !ok {
			return Unknown
		}
		if ra.HasMatch(rb.ID) || rb.HasMatch(ra.ID) {
			return Match
		}
		return NonMatch
	}
}

// TruthOr returns a TruthFunc that consults the labels stored in s first and
// falls back to fallback for unlabeled pairs. fallback may be nil.
func (s *Store) TruthOr(fallback TruthFunc) TruthFunc {
	return func(a, b record.Handle) Truth {
		if t := s.GroundTruth(a, b); t.Known() || fallback == nil {
			return t
		}
		return fallback(a, b)
	}
}

// ScoredPair is a score with the identifiers of its records.
type ScoredPair struct {
	Score float64
	A, B  string
}

// MatchScoreSet splits the scores of one metric by ground truth.
type MatchScoreSet struct {
	Matches    []ScoredPair
	NonMatches []ScoredPair
	// All holds every labeled pair. Labels[i] is the class of All[i]:
	// 1 for the class expected to score high (matches under a similarity
	// metric, nonmatches under a dissimilarity metric), 0 otherwise.
	All    []ScoredPair
	Labels []uint8
	// Unlabeled counts scored pairs whose truth is Unknown.
	Unlabeled int
}

// MatchScores splits every scored pair of s by truth. A nil truth uses the
// labels stored in s only.
func MatchScores(s *Store, truth TruthFunc) MatchScoreSet {
	if truth == nil {
		truth = s.TruthOr(nil)
	}
	high := s.metric.Kind.MatchScoresHigh()

	var set MatchScoreSet
	for e := range s.Pairs() {
		sp := ScoredPair{Score: e.Value, A: s.idx.ID(e.A), B: s.idx.ID(e.B)}

		var label uint8
		switch truth(e.A, e.B) {
		case Match:
			set.Matches = append(set.Matches, sp)
			if high {
				label = 1
			}
		case NonMatch:
			set.NonMatches = append(set.NonMatches, sp)
			if !high {
				label = 1
			}
		default:
			set.Unlabeled++
			continue
		}
		set.All = append(set.All, sp)
		set.Labels = append(set.Labels, label)
	}
	return set
}
