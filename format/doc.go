// Package format classifies raw score files.
//
// A score file is one of a closed set of layouts (Kind):
//
//   - Dense: a grid of scores. Either labeled (first row and first column
//     hold record identifiers) or an unlabeled square numeric block whose
//     rows and columns follow record order.
//   - Sparse: a list of (ID1, ID2, score) rows under a header that names a
//     single metric.
//   - Tabular: like Sparse, with two or more metric columns.
//
// List files may end with a ground-truth column holding Y/N markers.
//
// Detection looks only at the content: the delimiter of the first line,
// the shape of the header row and whether a numeric block is present. File
// extensions are never consulted.
package format
