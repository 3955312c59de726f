package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedResponse = errors.New("malformed prediction response")

// Response is the prediction API response body. Only the fields this service
// reads are declared.
type Response struct {
	Data []Row `json:"data"`
}

type Row struct {
	RowID            int               `json:"rowId"`
	Prediction       json.RawMessage   `json:"prediction,omitempty"`
	PredictionValues []PredictionValue `json:"predictionValues"`
}

type PredictionValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// rawValue keeps pointers so absent fields can be told apart from zero values.
type rawValue struct {
	Label *string  `json:"label"`
	Value *float64 `json:"value"`
}

type rawRow struct {
	RowID            int             `json:"rowId"`
	Prediction       json.RawMessage `json:"prediction,omitempty"`
	PredictionValues *[]rawValue     `json:"predictionValues"`
}

type rawResponse struct {
	Data *[]rawRow `json:"data"`
}

// DecodeResponse parses raw into a Response. Every row must carry a
// predictionValues list whose entries all have a label and a value.
func DecodeResponse(raw json.RawMessage) (*Response, error) {
	var r rawResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if r.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	out := &Response{Data: make([]Row, 0, len(*r.Data))}
	for i, row := range *r.Data {
		if row.PredictionValues == nil {
			return nil, fmt.Errorf("%w: data[%d] has no predictionValues", ErrMalformedResponse, i)
		}
		values := make([]PredictionValue, 0, len(*row.PredictionValues))
		for j, v := range *row.PredictionValues {
			if v.Label == nil || v.Value == nil {
				return nil, fmt.Errorf("%w: data[%d].predictionValues[%d] needs label and value", ErrMalformedResponse, i, j)
			}
			values = append(values, PredictionValue{Label: *v.Label, Value: *v.Value})
		}
		out.Data = append(out.Data, Row{
			RowID:            row.RowID,
			Prediction:       row.Prediction,
			PredictionValues: values,
		})
	}
	return out, nil
}
