package classifier

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Prediction is one label's probability as reported by the model.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Result is the top prediction with its probability as a percentage
// rounded to one decimal place.
type Result struct {
	Label      string          `json:"label"`
	Confidence decimal.Decimal `json:"confidence"`
}

var hundred = decimal.NewFromInt(100)

// Top stable-sorts predictions by descending probability and returns the
// first. Ties keep model output order. The input slice is not modified.
func Top(predictions []Prediction) (Result, error) {
	if len(predictions) == 0 {
		return Result{}, ErrNoPredictions
	}

	sorted := slices.Clone(predictions)
	slices.SortStableFunc(sorted, func(a, b Prediction) int {
		return cmp.Compare(b.Probability, a.Probability)
	})

	top := sorted[0]
	return Result{
		Label:      top.Label,
		Confidence: decimal.NewFromFloat(top.Probability).Mul(hundred).Round(1),
	}, nil
}

// align orders scores by label, drops unknown labels, fills missing ones
// with zero, and clamps every probability into [0, 1].
func align(labels []string, scores map[string]float64) []Prediction {
	out := make([]Prediction, len(labels))
	for i, label := range labels {
		out[i] = Prediction{Label: label, Probability: min(max(scores[label], 0), 1)}
	}
	return out
}
