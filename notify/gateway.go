package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/internal/httpclient"
)

// Gateway sends SMS digests through an HTTP gateway that accepts
// POST {"to": ..., "body": ...} and answers 2xx on acceptance.
type Gateway struct {
	url    string
	client *httpclient.Client
}

// NewGateway returns a Gateway posting to url.
func NewGateway(url string) *Gateway {
	return &Gateway{
		url: url,
		// Gateways commonly live on the local network.
		client: httpclient.New(15*time.Second, httpclient.Options{AllowPrivate: true}),
	}
}

// WithClient swaps the HTTP client; used by tests against httptest servers.
func (g *Gateway) WithClient(c *httpclient.Client) *Gateway {
	g.client = c
	return g
}

type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// SendSMS posts one message to the gateway. Bodies are clipped to
// MaxSMSBytes; the throttle digests before calling, this is a backstop.
func (g *Gateway) SendSMS(ctx context.Context, to, body string) error {
	if len(body) > MaxSMSBytes {
		body = body[:MaxSMSBytes]
	}

	buf, err := json.Marshal(smsPayload{To: to, Body: body})
	if err != nil {
		return errors.Wrap(err, "encoding SMS payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(buf))
	if err != nil {
		return errors.Wrap(err, "building SMS request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "posting SMS to gateway for %s", to)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Newf("SMS gateway returned %d for %s", resp.StatusCode, to)
	}
	return nil
}
