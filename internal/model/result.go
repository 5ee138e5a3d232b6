package model

import (
	"encoding/json"
	"strconv"
)

// AbsentText is written wherever a category score is absent.
const AbsentText = "N/A"

// ErrorPrefix tags failure cells so they are never mistaken for scores.
const ErrorPrefix = "Error: "

// Score is a category score in [0,1], or absent when the analyzer reported
// no value for the category (for example a category that does not apply to
// the page).
type Score struct {
	value   float64
	present bool
}

// ScoreOf returns a present score.
func ScoreOf(v float64) Score {
	return Score{value: v, present: true}
}

// AbsentScore returns the absent sentinel.
func AbsentScore() Score {
	return Score{}
}

// Value returns the score and whether it is present.
func (s Score) Value() (float64, bool) {
	return s.value, s.present
}

// Present reports whether the score carries a value.
func (s Score) Present() bool {
	return s.present
}

// String formats the score the way it is written into a store cell.
func (s Score) String() string {
	if !s.present {
		return AbsentText
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

// MarshalJSON encodes an absent score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.present {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// ResultKind discriminates the AuditResult variants.
type ResultKind int

const (
	// ResultSuccess carries category scores.
	ResultSuccess ResultKind = iota
	// ResultFailure carries a diagnostic message.
	ResultFailure
)

// String returns "success" or "failure".
func (k ResultKind) String() string {
	if k == ResultFailure {
		return "failure"
	}
	return "success"
}

// AuditResult is the outcome of one analyzer invocation for one target.
// It is either a success holding a score per category or a failure holding
// a message. Values are immutable once built.
type AuditResult struct {
	kind    ResultKind
	scores  map[Category]Score
	message string
}

// Success builds a successful result. The map is copied.
func Success(scores map[Category]Score) AuditResult {
	cp := make(map[Category]Score, len(scores))
	for k, v := range scores {
		cp[k] = v
	}
	return AuditResult{kind: ResultSuccess, scores: cp}
}

// Failure builds a failed result with the given message.
func Failure(message string) AuditResult {
	return AuditResult{kind: ResultFailure, message: message}
}

// Kind returns the variant.
func (r AuditResult) Kind() ResultKind {
	return r.kind
}

// Failed reports whether r is a failure.
func (r AuditResult) Failed() bool {
	return r.kind == ResultFailure
}

// Message returns the failure message, or "" for successes.
func (r AuditResult) Message() string {
	return r.message
}

// Score returns the score for a category. Categories missing from the report
// and all categories of a failure are absent.
func (r AuditResult) Score(c Category) Score {
	if r.kind != ResultSuccess {
		return AbsentScore()
	}
	return r.scores[c]
}

// Cell returns the store cell text for category c: the score, the absent
// marker, or the error-tagged message.
func (r AuditResult) Cell(c Category) string {
	if r.kind == ResultFailure {
		return ErrorPrefix + r.message
	}
	return r.Score(c).String()
}

// MarshalJSON encodes the result as {"status": ..., "scores"|"error": ...}.
func (r AuditResult) MarshalJSON() ([]byte, error) {
	if r.kind == ResultFailure {
		return json.Marshal(struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}{Status: r.kind.String(), Error: r.message})
	}
	return json.Marshal(struct {
		Status string             `json:"status"`
		Scores map[Category]Score `json:"scores"`
	}{Status: r.kind.String(), Scores: r.scores})
}
