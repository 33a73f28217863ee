package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/internal/httpclient"
)

func TestCompositeUnconfiguredLegs(t *testing.T) {
	var c Composite

	err := c.SendEmail(context.Background(), "ops@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	err = c.SendSMS(context.Background(), "+15550100", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestFromConfig(t *testing.T) {
	c := FromConfig(config.NotifyConfig{
		SMTP:          config.SMTPConfig{Host: "mail.example.com", Port: 587, From: "ops@example.com"},
		SMSGatewayURL: "http://sms.internal/send",
	})
	assert.NotNil(t, c.Email)
	assert.NotNil(t, c.SMS)

	empty := FromConfig(config.NotifyConfig{})
	assert.Nil(t, empty.Email)
	assert.Nil(t, empty.SMS)
}

func TestGatewaySendSMS(t *testing.T) {
	var got smsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL).WithClient(httpclient.WrapClient(srv.Client()))
	err := g.SendSMS(context.Background(), "+15550100", "FATAL: connection refused")
	require.NoError(t, err)
	assert.Equal(t, "+15550100", got.To)
	assert.Equal(t, "FATAL: connection refused", got.Body)
}

func TestGatewayClipsOversizedBody(t *testing.T) {
	var got smsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL).WithClient(httpclient.WrapClient(srv.Client()))
	err := g.SendSMS(context.Background(), "+15550100", strings.Repeat("x", MaxSMSBytes*2))
	require.NoError(t, err)
	assert.Len(t, got.Body, MaxSMSBytes)
}

func TestGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL).WithClient(httpclient.WrapClient(srv.Client()))
	err := g.SendSMS(context.Background(), "+15550100", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
