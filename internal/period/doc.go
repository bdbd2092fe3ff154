// Package period parses the free-text reporting periods found in the NHS A&E
// monthly CSV files and builds the fiscal year labels used in page URLs.
//
// A period value looks like "MSitAE-APRIL-2022": a source prefix, an English
// month name and a year separated by hyphens. Normalize maps it to the last
// calendar day of that month. Summary rows ("TOTAL") and anything that cannot
// be parsed are rejected with an error so callers can drop the row.
package period
