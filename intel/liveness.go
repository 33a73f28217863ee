package intel

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/opsbolt/opsbolt/internal/httpclient"
)

// checkLiveness probes https then http for the domain. Any HTTP response at
// all counts as alive, whatever the status; only transport failures on both
// schemes leave the domain dead.
func checkLiveness(ctx context.Context, client *httpclient.Client, domain string) LivenessRecord {
	for _, scheme := range []string{"https", "http"} {
		rec, ok := checkURL(ctx, client, scheme+"://"+domain+"/")
		if ok {
			return rec
		}
	}
	return LivenessRecord{}
}

// checkURL issues a HEAD, falling back to GET for servers that reject HEAD
// at the transport level. The body is drained and discarded; only status
// and wall-clock latency matter.
func checkURL(ctx context.Context, client *httpclient.Client, url string) (LivenessRecord, bool) {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return LivenessRecord{}, false
		}
		req.Header.Set("User-Agent", "opsbolt-intel/1.0")

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		latency := time.Since(start)

		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		return LivenessRecord{
			Alive:      true,
			URL:        url,
			StatusCode: resp.StatusCode,
			Latency:    latency,
		}, true
	}
	return LivenessRecord{}, false
}
