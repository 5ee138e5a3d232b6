// Package model defines the data types shared across pagescore.
//
// It contains the audit target (a validated URL), the per-target audit
// result (a success carrying category scores or a failure carrying a
// message), the ordered batch produced by one iteration, and the iteration
// report printed after reconciliation. Types here carry no I/O.
package model
