package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsbolt/opsbolt/internal/httpclient"
)

func TestDoReportsStatusAndTimings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello probe"))
	}))
	defer srv.Close()

	res, err := Do(context.Background(), httpclient.WrapClient(srv.Client()), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int64(len("hello probe")), res.BodyBytes)
	assert.Greater(t, res.Total, time.Duration(0))
	assert.GreaterOrEqual(t, res.Total, res.TTFB)
}

func TestDoNonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res, err := Do(context.Background(), httpclient.WrapClient(srv.Client()), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := httpclient.WrapClient(srv.Client())
	srv.Close() // nothing listening anymore

	_, err := Do(context.Background(), client, srv.URL)
	assert.Error(t, err)
}

func TestResultString(t *testing.T) {
	r := &Result{
		URL:        "https://example.com/",
		StatusCode: 200,
		Proto:      "HTTP/2.0",
		BodyBytes:  1256,
		DNS:        3 * time.Millisecond,
		Connect:    10 * time.Millisecond,
		TLS:        20 * time.Millisecond,
		TTFB:       55 * time.Millisecond,
		Total:      80 * time.Millisecond,
	}
	line := r.String()
	assert.True(t, strings.HasPrefix(line, "https://example.com/ 200 HTTP/2.0"))
	assert.Contains(t, line, "ttfb=55ms")
	assert.Contains(t, line, "bytes=1256")
	assert.NotContains(t, line, "\n")
}
