package intel

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/opsbolt/opsbolt/errors"
)

// Resolver is the subset of net.Resolver the fetcher needs, extracted so
// tests can answer lookups without a network.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// lookupDNS collects the record types the report carries. Individual lookup
// failures are fine: NXDOMAIN on MX is normal for plenty of domains, so
// only the host lookup failing is reported as a source error.
func lookupDNS(ctx context.Context, r Resolver, domain string) (DNSRecord, error) {
	var rec DNSRecord

	addrs, err := r.LookupHost(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return rec, nil
		}
		return rec, err
	}
	sort.Strings(addrs)
	rec.Addrs = addrs

	if ns, err := r.LookupNS(ctx, domain); err == nil {
		hosts := make([]string, 0, len(ns))
		for _, n := range ns {
			hosts = append(hosts, n.Host)
		}
		rec.NS = mergeHosts(hosts)
	}

	if mx, err := r.LookupMX(ctx, domain); err == nil {
		for _, m := range mx {
			rec.MX = append(rec.MX,
				fmt.Sprintf("%s (pref %d)", strings.TrimSuffix(strings.ToLower(m.Host), "."), m.Pref))
		}
	}

	if txt, err := r.LookupTXT(ctx, domain); err == nil {
		rec.TXT = txt
	}

	if cname, err := r.LookupCNAME(ctx, domain); err == nil {
		cname = strings.TrimSuffix(strings.ToLower(cname), ".")
		// LookupCNAME answers the name itself when there is no CNAME chain
		if cname != domain {
			rec.CNAME = cname
		}
	}

	return rec, nil
}
