// Package probe implements the one-line HTTP status/timing probe.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/internal/httpclient"
)

// Result holds the status and phase timings of one probe.
type Result struct {
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Proto      string        `json:"proto"`
	BodyBytes  int64         `json:"body_bytes"`
	DNS        time.Duration `json:"dns"`
	Connect    time.Duration `json:"connect"`
	TLS        time.Duration `json:"tls"`
	TTFB       time.Duration `json:"ttfb"` // from request start to first response byte
	Total      time.Duration `json:"total"`
}

// Do probes url with a GET and returns status and timings. A response with
// any status code is a successful probe; only transport failures error.
func Do(ctx context.Context, client *httpclient.Client, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building probe request")
	}
	req.Header.Set("User-Agent", "opsbolt-probe/1.0")

	var (
		start        = time.Now()
		dnsStart     time.Time
		connectStart time.Time
		tlsStart     time.Time
		res          Result
	)

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			if !dnsStart.IsZero() {
				res.DNS = time.Since(dnsStart)
			}
		},
		ConnectStart: func(string, string) { connectStart = time.Now() },
		ConnectDone: func(string, string, error) {
			if !connectStart.IsZero() {
				res.Connect = time.Since(connectStart)
			}
		},
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			if !tlsStart.IsZero() {
				res.TLS = time.Since(tlsStart)
			}
		},
		GotFirstResponseByte: func() { res.TTFB = time.Since(start) },
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "probing %s", url)
	}
	defer resp.Body.Close()

	n, _ := io.Copy(io.Discard, resp.Body)
	res.Total = time.Since(start)

	res.URL = url
	res.StatusCode = resp.StatusCode
	res.Proto = resp.Proto
	res.BodyBytes = n
	return &res, nil
}

// String renders the one-line report.
func (r *Result) String() string {
	return fmt.Sprintf("%s %d %s dns=%s connect=%s tls=%s ttfb=%s total=%s bytes=%d",
		r.URL, r.StatusCode, r.Proto,
		ms(r.DNS), ms(r.Connect), ms(r.TLS), ms(r.TTFB), ms(r.Total),
		r.BodyBytes)
}

func ms(d time.Duration) string {
	return d.Round(100 * time.Microsecond).String()
}
