// Package parser turns a classified score file into per-metric partial
// mappings of directed record pairs.
//
// Each format.Kind has exactly one strategy, obtained with For. A strategy
// resolves record identifiers against a shared record.Index and records
// every cell as a directed Entry. Blank cells stay absent; they are never
// coerced to zero. The directed entries are later reduced to one value per
// unordered pair by the symmetrize package.
package parser
