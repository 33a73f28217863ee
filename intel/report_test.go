package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Example.COM", "example.com"},
		{" example.com ", "example.com"},
		{"https://example.com/path?q=1", "example.com"},
		{"http://example.com#frag", "example.com"},
		{"example.com.", "example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDomain(tt.in), tt.in)
	}
}

func TestMergeHosts(t *testing.T) {
	got := mergeHosts(
		[]string{"NS2.EXAMPLE.NET.", "ns1.example.net"},
		[]string{"ns1.example.net.", " ns3.example.net", ""},
	)
	assert.Equal(t, []string{"ns1.example.net", "ns2.example.net", "ns3.example.net"}, got)
}

func TestReportNameServersMergesSources(t *testing.T) {
	r := &Report{
		Whois: WhoisRecord{NameServers: []string{"a.iana-servers.net", "B.IANA-SERVERS.NET"}},
		DNS:   DNSRecord{NS: []string{"b.iana-servers.net", "c.iana-servers.net"}},
	}
	assert.Equal(t,
		[]string{"a.iana-servers.net", "b.iana-servers.net", "c.iana-servers.net"},
		r.NameServers())
}
