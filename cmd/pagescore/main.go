// Package main provides the entry point for the pagescore CLI.
//
// pagescore runs Lighthouse audits over a list of websites a fixed number of
// times and merges every iteration into a stored result sheet, one column
// group per iteration, with a trailing row of column averages.
//
// Usage:
//
//	pagescore run <target-set> <iterations> <sheet>
//	pagescore history <sheet>
//	pagescore filter top-1m.csv live.csv
//
// See --help for all available options.
package main

// main is the entry point for pagescore.
func main() {
	Execute()
}
