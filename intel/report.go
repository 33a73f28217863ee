// Package intel aggregates WHOIS, DNS, and HTTP-liveness data per domain
// into a single normalized report. Sources are inconsistent text; the work
// here is merging and normalizing them, not systems engineering. A failing
// source degrades its section of the report and is recorded, never aborting
// the rest of the batch.
package intel

import (
	"sort"
	"strings"
	"time"
)

// Report is the merged intelligence for one domain.
type Report struct {
	Domain    string         `json:"domain"`
	FetchedAt time.Time      `json:"fetched_at"`
	Whois     WhoisRecord    `json:"whois"`
	DNS       DNSRecord      `json:"dns"`
	HTTP      LivenessRecord `json:"http"`
	Errors    []string       `json:"errors,omitempty"` // per-source failures
}

// WhoisRecord is the normalized slice of a registry WHOIS response.
type WhoisRecord struct {
	Registered  bool     `json:"registered"`
	Registrar   string   `json:"registrar,omitempty"`
	Created     string   `json:"created,omitempty"` // YYYY-MM-DD when parseable, else raw
	Updated     string   `json:"updated,omitempty"`
	Expires     string   `json:"expires,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	NameServers []string `json:"name_servers,omitempty"`
	DNSSec      bool     `json:"dnssec,omitempty"`
}

// DNSRecord holds resolver answers for the domain.
type DNSRecord struct {
	Addrs []string `json:"addrs,omitempty"` // A and AAAA
	NS    []string `json:"ns,omitempty"`
	MX    []string `json:"mx,omitempty"`
	TXT   []string `json:"txt,omitempty"`
	CNAME string   `json:"cname,omitempty"`
}

// LivenessRecord is the HTTP reachability result.
type LivenessRecord struct {
	Alive      bool          `json:"alive"`
	URL        string        `json:"url,omitempty"` // the URL that answered
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency,omitempty"`
}

// NameServers merges the WHOIS-declared and DNS-observed name servers into
// one normalized list. The two sources routinely disagree in case, trailing
// dots, and ordering.
func (r *Report) NameServers() []string {
	return mergeHosts(r.Whois.NameServers, r.DNS.NS)
}

// mergeHosts lowercases, strips trailing dots, dedupes, and sorts.
func mergeHosts(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, h := range list {
			h = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(h), "."))
			if h == "" {
				continue
			}
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}

// normalizeDomain prepares operator input for querying: trims whitespace,
// lowercases, and strips any scheme or path pasted in from a browser bar.
func normalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}
