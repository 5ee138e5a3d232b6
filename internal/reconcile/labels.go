package reconcile

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/pagescore/internal/model"
)

// LabelLayout formats the timestamp of a column group.
const LabelLayout = "2006-01-02 15:04:05"

// AggregateKey is the key cell of the trailing aggregate row.
const AggregateKey = "Average"

// Labels returns the column group labels for categories at time at, such
// as "Performance 2024-05-01 10:00:00".
func Labels(categories []model.Category, at time.Time) []string {
	stamp := at.Format(LabelLayout)
	labels := make([]string, len(categories))
	for i, c := range categories {
		labels[i] = c.Title() + " " + stamp
	}
	return labels
}

// numeric parses a cell holding a finite number. Blank, error-tagged and
// absent cells are not numeric.
func numeric(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.HasPrefix(cell, model.ErrorPrefix) {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// mean formats the arithmetic mean of values with four decimals, or
// model.NoDataText when values is empty.
func mean(values []float64) string {
	if len(values) == 0 {
		return model.NoDataText
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return strconv.FormatFloat(sum/float64(len(values)), 'f', 4, 64)
}
