// Package breed turns a prediction response into the top-3 breeds and a
// sentence describing how sure the model is.
package breed

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Brownie44l1/breed-api/internal/prediction"
)

// TopK is the number of breeds reported.
const TopK = 3

const (
	highConfidence   = 0.75
	mediumConfidence = 0.5
)

var (
	ErrSchemaMismatch      = errors.New("prediction response does not match expected schema")
	ErrInsufficientResults = errors.New("fewer than 3 predicted categories")
)

type Result struct {
	Text   string
	Labels [TopK]string
	Values [TopK]float64
}

// Format decodes raw and describes the first row's top-3 predictions.
func Format(raw json.RawMessage) (*Result, error) {
	resp, err := prediction.DecodeResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return FormatResponse(resp)
}

// FormatResponse is Format for an already decoded response. resp is not
// modified.
func FormatResponse(resp *prediction.Response) (*Result, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no prediction rows", ErrSchemaMismatch)
	}

	ranked := TopPredictions(resp.Data[0].PredictionValues)
	if len(ranked) < TopK {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientResults, len(ranked))
	}

	res := &Result{}
	for i := 0; i < TopK; i++ {
		res.Labels[i] = ranked[i].Label
		res.Values[i] = ranked[i].Value
	}
	res.Text = Sentence(res.Labels, res.Values)
	return res, nil
}

// TopPredictions returns up to TopK values ordered by value descending. Ties
// keep their original order.
func TopPredictions(values []prediction.PredictionValue) []prediction.PredictionValue {
	ranked := make([]prediction.PredictionValue, len(values))
	copy(ranked, values)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}
	return ranked
}

// Sentence renders the confidence statement for labels and values sorted by
// value descending.
func Sentence(labels [TopK]string, values [TopK]float64) string {
	var s string
	switch v0 := values[0]; {
	case v0 > highConfidence:
		s = fmt.Sprintf("I am %s confident that this dog is a %s",
			Percent(v0), labels[0])
	case v0 > mediumConfidence:
		s = fmt.Sprintf("With %s confidence, I think this dog is a %s, but it's possible that it could also be a %s (%s) or a %s (%s)!",
			Percent(v0), labels[0], labels[1], Percent(values[1]), labels[2], Percent(values[2]))
	default:
		s = fmt.Sprintf("With only %s confidence I am unsure of this dog's breed. It looks like a %s, but could also be a %s (%s) or a %s (%s)!",
			Percent(v0), labels[0], labels[1], Percent(values[1]), labels[2], Percent(values[2]))
	}
	return strings.ReplaceAll(s, "_", " ")
}

// Percent formats a fraction as a percentage with one decimal, 0.8421 -> "84.2%".
func Percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}
