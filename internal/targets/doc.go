// Package targets loads the list of URLs to audit.
//
// A target set is either a file (one URL per line, or a CSV file with a
// Website, Domain or URL column) or the name of a stored sheet, whose
// Website column is read. Raw entries are normalized with
// model.NormalizeTarget; entries that cannot be fixed and duplicates are
// dropped and reported as diagnostics.
package targets
