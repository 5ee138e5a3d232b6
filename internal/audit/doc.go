// Package audit runs the external page-quality analyzer (Lighthouse) for a
// single URL and turns its JSON report into a model.AuditResult.
//
// The Runner never returns an error: a missing binary, a non-zero exit, a
// runtime error reported by Lighthouse, and a report that does not decode
// all become failure results carrying a message. Retrying is left to the
// caller.
package audit
