// Package report renders iteration results and stored sheets.
//
// This package contains writers for different output formats:
//   - SimpleWriter: text tables for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown documents for sharing
//
// Writers implement the Writer interface, so they can be used
// interchangeably and composed with MultiWriter.
package report
