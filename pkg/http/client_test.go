package http

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyTransport fails the first n round trips with a network error
type flakyTransport struct {
	mu     sync.Mutex
	fails  int
	calls  int
	bodies []string
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, _ := io.ReadAll(req.Body)
	f.bodies = append(f.bodies, string(b))
	if f.calls <= f.fails {
		return nil, errors.New("connection reset by peer")
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestClientDo_NoRetriesByDefault(t *testing.T) {
	transport := &flakyTransport{fails: 1}
	client := NewClientWithOptions(Options{Transport: transport}, zap.NewNop())

	req, err := http.NewRequest(http.MethodPost, "http://example.invalid/soap", strings.NewReader("<x/>"))
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.Equal(t, 1, transport.calls)
}

func TestClientDo_RetriesReplayBody(t *testing.T) {
	transport := &flakyTransport{fails: 2}
	client := NewClientWithOptions(Options{
		Transport:       transport,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}, zap.NewNop())

	req, err := http.NewRequest(http.MethodPost, "http://example.invalid/soap", strings.NewReader("<x/>"))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, transport.calls)
	assert.Equal(t, []string{"<x/>", "<x/>", "<x/>"}, transport.bodies)
}

func TestClientDo_ServerErrorIsReturned(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("fault"))
	}))
	defer server.Close()

	client := NewClientWithOptions(Options{MaxRetries: 3}, zap.NewNop())
	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("<x/>"))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "fault", string(body))
	assert.Equal(t, 1, hits)
}
