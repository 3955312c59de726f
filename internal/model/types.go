package model

// PredictionRequest is the JSON body of POST /predict.
type PredictionRequest struct {
	Image string `json:"image"`
}

type PredictionResponse struct {
	Text   string    `json:"text"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Image  string    `json:"image,omitempty"`
}
