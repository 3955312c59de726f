package metric

import (
	"strconv"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const (
	ApiRequestCount           = "api_request_count"
	ApiRequestLatency         = "api_request_latency"
	ExternalApiRequestCount   = "external_api_request_count"
	ExternalApiRequestLatency = "external_api_request_latency"
	ClassificationCount       = "classification_count"
	ClassificationLatency     = "classification_latency"
)

const (
	TagEnv                 = "env"
	TagService             = "service"
	TagPath                = "path"
	TagMethod              = "method"
	TagHttpStatusCode      = "http_status_code"
	TagExternalService     = "external_service"
	TagExternalStatusCode  = "external_service_status_code"
	TagOutcome             = "outcome"
	TagValueDataRobot      = "datarobot"
	TagValueOutcomeSuccess = "success"
)

const samplingRate = 1.0

// Recorder sends metrics to a statsd agent. A nil *Recorder is valid and
// drops everything.
type Recorder struct {
	client statsd.ClientInterface
}

// New creates a Recorder for the given agent address. An empty address yields
// a no-op recorder.
func New(addr, appName, env string) (*Recorder, error) {
	if addr == "" {
		log.Info().Msg("STATSD_ADDR not set, metrics disabled")
		return &Recorder{client: &statsd.NoOpClient{}}, nil
	}
	client, err := statsd.New(addr, statsd.WithTags([]string{
		TagAsString(TagEnv, env),
		TagAsString(TagService, appName),
	}))
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", addr).Msg("Metrics client initialized")
	return &Recorder{client: client}, nil
}

// NewWithClient wraps an existing statsd client.
func NewWithClient(client statsd.ClientInterface) *Recorder {
	return &Recorder{client: client}
}

func (r *Recorder) Timing(name string, value time.Duration, tags []string) {
	if r == nil {
		return
	}
	if err := r.client.Timing(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Error occurred while doing statsd timing")
	}
}

func (r *Recorder) Incr(name string, tags []string) {
	if r == nil {
		return
	}
	if err := r.client.Incr(name, tags, samplingRate); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Error occurred while doing statsd incr")
	}
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

func TagAsString(name, value string) string {
	return name + ":" + value
}

// BuildExternalTags tags an outbound call. A zero status code means no
// response was received.
func BuildExternalTags(service string, statusCode int) []string {
	return []string{
		TagAsString(TagExternalService, service),
		TagAsString(TagExternalStatusCode, strconv.Itoa(statusCode)),
	}
}
