// Package database provides SQLite-based storage for pagescore sheets.
//
// One database file ("pagescore.db") lives in the store folder and holds
// any number of sheets. Each sheet is kept as columns, rows and cells so
// that a reconciliation runs inside a single SQL transaction: either every
// cell of an iteration is written, or none is.
//
// The driver is modernc.org/sqlite, which needs no CGO.
package database
