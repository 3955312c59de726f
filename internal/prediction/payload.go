package prediction

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
)

// ImageColumn is the feature name the deployment expects the image under.
const ImageColumn = "image"

// EncodeCSV builds a single-row CSV payload holding one base64 image.
func EncodeCSV(imageBase64 string) ([]byte, error) {
	if imageBase64 == "" {
		return nil, ErrEmptyPayload
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{{ImageColumn}, {imageBase64}}); err != nil {
		return nil, fmt.Errorf("failed to write csv payload: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJSON builds the JSON equivalent of EncodeCSV: [{"image": "..."}].
func EncodeJSON(imageBase64 string) ([]byte, error) {
	if imageBase64 == "" {
		return nil, ErrEmptyPayload
	}
	out, err := json.Marshal([]map[string]string{{ImageColumn: imageBase64}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json payload: %w", err)
	}
	return out, nil
}
