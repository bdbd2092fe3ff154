// Package dataset combines downloaded CSV files into a single table and
// derives the national and NCL outputs from it.
//
// Tables are plain header + string rows. Concatenation takes the union of
// columns in first-seen order and fills missing cells with empty strings, so
// files published with slightly different schemas still line up by name.
package dataset
