// Package store defines the tabular store that iteration results are merged
// into.
//
// A store holds named sheets. Each sheet is a rectangular table whose first
// header is KeyHeader ("Website") and whose rows are keyed by the value in
// that column. All reads and writes go through a Tx so that a failed
// reconciliation leaves no partial state behind.
//
// Backends:
//   - Memory: in-process, used by tests and dry runs
//   - xlsx (package store/xlsx): one spreadsheet file per sheet
//   - SQLite (package database): one database file holding many sheets
package store
