// Package symmetrize resolves directed scores into one value per unordered
// record pair.
//
// For a pair {A, B} a single directed value is used as-is, two directed
// values are combined by a Reducer and a pair without values stays absent.
// Ground truth given in either direction applies to the pair; opposing
// labels fail with ErrInconsistentGroundTruth. Scores are never inverted
// between similarity and dissimilarity.
package symmetrize
