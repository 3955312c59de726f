package model

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/Brownie44l1/breed-api/internal/breed"
	"github.com/Brownie44l1/breed-api/internal/config"
	"github.com/Brownie44l1/breed-api/internal/imaging"
	"github.com/Brownie44l1/breed-api/internal/metric"
	"github.com/Brownie44l1/breed-api/internal/prediction"
	"github.com/rs/zerolog/log"
)

// Server classifies images against one remote deployment.
type Server struct {
	client       *prediction.Client
	deploymentID string
	metrics      *metric.Recorder
}

func NewServer(cfg config.Config, metrics *metric.Recorder, opts ...prediction.Option) (*Server, error) {
	if cfg.DeploymentID == "" {
		return nil, fmt.Errorf("%w: deployment id", prediction.ErrMissingConfig)
	}

	opts = append([]prediction.Option{prediction.WithMetrics(metrics)}, opts...)
	client, err := prediction.NewClient(prediction.Config{
		URLTemplate: cfg.APIURL,
		Credentials: prediction.Credentials{
			APIKey:       cfg.APIKey,
			DataRobotKey: cfg.DataRobotKey,
		},
		Timeout: cfg.Timeout,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction client: %w", err)
	}

	return &Server{
		client:       client,
		deploymentID: cfg.DeploymentID,
		metrics:      metrics,
	}, nil
}

func (s *Server) DeploymentID() string {
	return s.deploymentID
}

// Classify sends img to the deployment and describes the top-3 breeds.
func (s *Server) Classify(ctx context.Context, img image.Image) (*PredictionResponse, error) {
	encoded, err := imaging.ToBase64(img)
	if err != nil {
		return nil, err
	}
	return s.ClassifyBase64(ctx, encoded)
}

// ClassifyBase64 is Classify for an image that is already base64 encoded.
func (s *Server) ClassifyBase64(ctx context.Context, imageBase64 string) (*PredictionResponse, error) {
	start := time.Now()
	resp, err := s.classify(ctx, imageBase64)
	tags := []string{metric.TagAsString(metric.TagOutcome, outcome(err))}
	s.metrics.Timing(metric.ClassificationLatency, time.Since(start), tags)
	s.metrics.Incr(metric.ClassificationCount, tags)
	return resp, err
}

func (s *Server) classify(ctx context.Context, imageBase64 string) (*PredictionResponse, error) {
	payload, err := prediction.EncodeCSV(imageBase64)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Predict(ctx, payload, s.deploymentID, prediction.ContentTypeCSV)
	if err != nil {
		return nil, err
	}

	result, err := breed.Format(raw)
	if err != nil {
		log.Error().Err(err).Str("deployment_id", s.deploymentID).Msg("Failed to read predictions")
		return nil, err
	}

	log.Info().
		Strs("labels", result.Labels[:]).
		Floats64("values", result.Values[:]).
		Msg("Classified image")

	return &PredictionResponse{
		Text:   result.Text,
		Labels: result.Labels[:],
		Values: result.Values[:],
	}, nil
}

func outcome(err error) string {
	var predErr *prediction.PredictionError
	switch {
	case err == nil:
		return metric.TagValueOutcomeSuccess
	case errors.Is(err, prediction.ErrPayloadTooLarge), errors.Is(err, prediction.ErrEmptyPayload):
		return "rejected_input"
	case errors.As(err, &predErr):
		return "remote_rejected"
	case errors.Is(err, breed.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, breed.ErrInsufficientResults):
		return "insufficient_results"
	default:
		return "error"
	}
}
