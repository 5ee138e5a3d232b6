// Package reconcile merges one iteration's batch into a sheet.
//
// Each reconciliation appends a column group (one column per category,
// labeled with the run timestamp), upserts one row per target keyed by
// exact URL, backfills blank cells so the sheet stays rectangular and
// writes the column means into a trailing "Average" row. Everything happens
// inside one store transaction; on any error the transaction is rolled back.
package reconcile
