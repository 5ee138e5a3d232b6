package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/nao1215/pagescore/internal/model"
)

// ErrMalformedReport is returned when analyzer output is not a report of the
// expected shape.
var ErrMalformedReport = errors.New("malformed analyzer report")

// lighthouseReport is the subset of the Lighthouse JSON report that is read.
type lighthouseReport struct {
	RequestedURL string `json:"requestedUrl"`

	RuntimeError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"runtimeError"`

	// Categories is keyed by category id. A null score means the category
	// could not be computed.
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
}

// ParseReport decodes a Lighthouse JSON report and extracts a score for each
// requested category. Categories missing from the report, or reported with a
// null score, are absent.
//
// A report carrying a runtimeError yields a failure result with a nil error.
// Output that is not a report yields ErrMalformedReport.
func ParseReport(data []byte, categories []model.Category) (model.AuditResult, error) {
	var rep lighthouseReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return model.AuditResult{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}

	if rep.RuntimeError != nil && rep.RuntimeError.Code != "" {
		msg := rep.RuntimeError.Code
		if rep.RuntimeError.Message != "" {
			msg += ": " + rep.RuntimeError.Message
		}
		return model.Failure(msg), nil
	}

	if rep.Categories == nil {
		return model.AuditResult{}, fmt.Errorf("%w: no categories", ErrMalformedReport)
	}

	scores := make(map[model.Category]model.Score, len(categories))
	for _, c := range categories {
		cat, ok := rep.Categories[c.String()]
		if !ok || cat.Score == nil {
			scores[c] = model.AbsentScore()
			continue
		}
		v := *cat.Score
		if math.IsNaN(v) || v < 0 || v > 1 {
			return model.AuditResult{}, fmt.Errorf("%w: %s score %v out of range", ErrMalformedReport, c, v)
		}
		scores[c] = model.ScoreOf(v)
	}
	return model.Success(scores), nil
}
