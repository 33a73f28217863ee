package intel

import (
	"context"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/opsbolt/opsbolt/errors"
)

// WhoisFunc fetches the raw WHOIS text for a domain. Swappable so tests
// never talk to registries.
type WhoisFunc func(ctx context.Context, domain string) (string, error)

// defaultWhoisFn queries registries with the likexian client. The client
// carries its own dial timeout; the goroutine-and-select wrapper honors
// context cancellation on top of it.
func defaultWhoisFn(timeout time.Duration) WhoisFunc {
	client := whois.NewClient()
	client.SetTimeout(timeout)

	return func(ctx context.Context, domain string) (string, error) {
		type result struct {
			raw string
			err error
		}
		ch := make(chan result, 1)
		go func() {
			raw, err := client.Whois(domain)
			ch <- result{raw, err}
		}()

		select {
		case <-ctx.Done():
			return "", errors.Wrapf(ctx.Err(), "whois %s", domain)
		case r := <-ch:
			if r.err != nil {
				return "", errors.Wrapf(r.err, "whois %s", domain)
			}
			return r.raw, nil
		}
	}
}

// parseWhois normalizes raw registry text into a WhoisRecord. An
// unregistered domain is a valid answer, not an error.
func parseWhois(raw string) (WhoisRecord, error) {
	info, err := whoisparser.Parse(raw)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			return WhoisRecord{Registered: false}, nil
		}
		return WhoisRecord{}, errors.Wrap(err, "parsing whois response")
	}

	rec := WhoisRecord{Registered: true}
	if d := info.Domain; d != nil {
		rec.Statuses = d.Status
		rec.NameServers = mergeHosts(d.NameServers)
		rec.DNSSec = d.DNSSec
		rec.Created = normalizeDate(d.CreatedDateInTime, d.CreatedDate)
		rec.Updated = normalizeDate(d.UpdatedDateInTime, d.UpdatedDate)
		rec.Expires = normalizeDate(d.ExpirationDateInTime, d.ExpirationDate)
	}
	if info.Registrar != nil {
		rec.Registrar = info.Registrar.Name
	}
	return rec, nil
}

// normalizeDate prefers the parsed timestamp, falling back to whatever raw
// text the registry sent. Registries use wildly inconsistent date formats.
func normalizeDate(t *time.Time, raw string) string {
	if t != nil {
		return t.UTC().Format("2006-01-02")
	}
	return raw
}
