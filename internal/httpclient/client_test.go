package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURLSchemes(t *testing.T) {
	c := New(time.Second, Options{})

	_, err := c.ValidateURL("ftp://example.com/file")
	assert.Error(t, err)

	_, err = c.ValidateURL("https://example.com/")
	assert.NoError(t, err)
}

func TestValidateURLRejectsUserinfo(t *testing.T) {
	c := New(time.Second, Options{})
	_, err := c.ValidateURL("http://evil.com@localhost/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userinfo")
}

func TestValidateURLBlocksLocalhost(t *testing.T) {
	c := New(time.Second, Options{})
	for _, target := range []string{
		"http://localhost/",
		"http://127.0.0.1/",
		"http://10.1.2.3/",
		"http://192.168.0.1/",
	} {
		_, err := c.ValidateURL(target)
		assert.Error(t, err, target)
	}
}

func TestAllowPrivatePermitsLoopback(t *testing.T) {
	c := New(time.Second, Options{AllowPrivate: true})
	_, err := c.ValidateURL("http://127.0.0.1:8080/healthz")
	assert.NoError(t, err)
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"10.0.0.1", "172.16.0.1", "192.168.1.1", "127.0.0.1", "169.254.1.1", "::1", "fd00::1"}
	for _, s := range private {
		assert.True(t, isPrivateIP(net.ParseIP(s)), s)
	}
	public := []string{"8.8.8.8", "1.1.1.1", "2606:4700:4700::1111"}
	for _, s := range public {
		assert.False(t, isPrivateIP(net.ParseIP(s)), s)
	}
}

func TestWrapClientAgainstTestServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := WrapClient(srv.Client())
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
