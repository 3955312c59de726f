package prediction

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pugResponse = `{"data":[{"predictionValues":[{"label":"pug","value":0.9},{"label":"boxer","value":0.05},{"label":"beagle","value":0.03},{"label":"collie","value":0.02}]}]}`

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		URLTemplate: serverURL + "/predApi/v1.0/deployments/{deployment_id}/predictions",
		Credentials: Credentials{APIKey: "secret-key", DataRobotKey: "routing-key"},
		Timeout:     10 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingConfig(t *testing.T) {
	valid := Config{
		URLTemplate: "http://localhost/{deployment_id}",
		Credentials: Credentials{APIKey: "a", DataRobotKey: "b"},
	}

	cfg := valid
	cfg.URLTemplate = ""
	_, err := NewClient(cfg)
	assert.ErrorIs(t, err, ErrMissingConfig)

	cfg = valid
	cfg.Credentials.APIKey = ""
	_, err = NewClient(cfg)
	assert.ErrorIs(t, err, ErrMissingConfig)

	cfg = valid
	cfg.Credentials.DataRobotKey = ""
	_, err = NewClient(cfg)
	assert.ErrorIs(t, err, ErrMissingConfig)

	c, err := NewClient(valid)
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestPredict_SendsAuthenticatedRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predApi/v1.0/deployments/dep-123/predictions", r.URL.Path)
		assert.Equal(t, "text/plain; charset=UTF-8", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "routing-key", r.Header.Get("DataRobot-Key"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "image\nAAAA\n", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, pugResponse)
	}))
	defer server.Close()

	payload, err := EncodeCSV("AAAA")
	require.NoError(t, err)

	raw, err := newTestClient(t, server.URL).Predict(context.Background(), payload, "dep-123", ContentTypeCSV)
	require.NoError(t, err)
	assert.JSONEq(t, pugResponse, string(raw))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPredict_JSONContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `[{"image":"AAAA"}]`, string(body))
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer server.Close()

	payload, err := EncodeJSON("AAAA")
	require.NoError(t, err)

	raw, err := newTestClient(t, server.URL).Predict(context.Background(), payload, "dep", ContentTypeJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(raw))
}

func TestPredict_RejectsPayloadBeforeNetworkCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()
	c := newTestClient(t, server.URL)

	_, err := c.Predict(context.Background(), make([]byte, MaxPayloadBytes), "dep", ContentTypeCSV)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	var tooLarge *PayloadTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 52428800, tooLarge.Size)

	_, err = c.Predict(context.Background(), nil, "dep", ContentTypeCSV)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPredict_JustBelowLimitIsSent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Predict(context.Background(), make([]byte, MaxPayloadBytes-1), "dep", ContentTypeCSV)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPredict_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, "bad input")
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Predict(context.Background(), []byte("image\nAAAA\n"), "dep", ContentTypeCSV)
	require.Error(t, err)

	var predErr *PredictionError
	require.True(t, errors.As(err, &predErr))
	assert.Equal(t, 422, predErr.StatusCode)
	assert.Equal(t, "bad input", predErr.Body)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "bad input")
}

func TestPredict_InvalidJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Predict(context.Background(), []byte("x"), "dep", ContentTypeCSV)
	require.Error(t, err)
	var predErr *PredictionError
	assert.False(t, errors.As(err, &predErr))
}

func TestPredict_TransportErrorIsNotWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(t, serverURL).Predict(context.Background(), []byte("x"), "dep", ContentTypeCSV)
	require.Error(t, err)

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
	var predErr *PredictionError
	assert.False(t, errors.As(err, &predErr))
}

func TestPredict_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c, err := NewClient(Config{
		URLTemplate: server.URL + "/{deployment_id}",
		Credentials: Credentials{APIKey: "a", DataRobotKey: "b"},
		Timeout:     50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), []byte("x"), "dep", ContentTypeCSV)
	require.Error(t, err)
	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr))
	assert.True(t, urlErr.Timeout())
}

func TestURL(t *testing.T) {
	c, err := NewClient(Config{
		URLTemplate: "https://app.example.com/predApi/v1.0/deployments/{deployment_id}/predictions",
		Credentials: Credentials{APIKey: "a", DataRobotKey: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/predApi/v1.0/deployments/abc/predictions", c.URL("abc"))
}
