package intel

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/internal/httpclient"
	"github.com/opsbolt/opsbolt/logger"
)

// Fetcher aggregates the three sources for a batch of domains. Sources for
// one domain run concurrently, domains run concurrently up to Concurrency,
// and all outbound calls share one polite rate limiter.
type Fetcher struct {
	Whois       WhoisFunc
	Resolver    Resolver
	HTTP        *httpclient.Client
	Limiter     *rate.Limiter
	Timeout     time.Duration
	Concurrency int

	now func() time.Time
}

// NewFetcher builds a Fetcher from configuration with real collaborators.
func NewFetcher(cfg config.FetchConfig) *Fetcher {
	timeout := cfg.FetchTimeout()
	return &Fetcher{
		Whois:       defaultWhoisFn(timeout),
		Resolver:    net.DefaultResolver,
		HTTP:        httpclient.New(timeout, httpclient.Options{}),
		Limiter:     rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
		Timeout:     timeout,
		Concurrency: cfg.Concurrency,
		now:         time.Now,
	}
}

// FetchAll fetches every domain, preserving input order. Duplicate and
// empty entries are dropped after normalization.
func (f *Fetcher) FetchAll(ctx context.Context, domains []string) []*Report {
	seen := make(map[string]struct{})
	var cleaned []string
	for _, d := range domains {
		d = normalizeDomain(d)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		cleaned = append(cleaned, d)
	}

	reports := make([]*Report, len(cleaned))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency())

	for i, domain := range cleaned {
		g.Go(func() error {
			reports[i] = f.Fetch(ctx, domain)
			return nil
		})
	}
	g.Wait()
	return reports
}

// Fetch aggregates one domain. Each source degrades independently: its
// failure lands in Report.Errors and the other sections still fill in.
func (f *Fetcher) Fetch(ctx context.Context, domain string) *Report {
	domain = normalizeDomain(domain)
	report := &Report{Domain: domain, FetchedAt: f.nowFunc()()}

	var mu sync.Mutex
	fail := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Errors = append(report.Errors, source+": "+err.Error())
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := f.wait(ctx); err != nil {
			fail("whois", err)
			return
		}
		sctx, cancel := context.WithTimeout(ctx, f.Timeout)
		defer cancel()
		raw, err := f.Whois(sctx, domain)
		if err != nil {
			fail("whois", err)
			return
		}
		rec, err := parseWhois(raw)
		if err != nil {
			fail("whois", err)
			return
		}
		mu.Lock()
		report.Whois = rec
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		if err := f.wait(ctx); err != nil {
			fail("dns", err)
			return
		}
		sctx, cancel := context.WithTimeout(ctx, f.Timeout)
		defer cancel()
		rec, err := lookupDNS(sctx, f.Resolver, domain)
		if err != nil {
			fail("dns", err)
			return
		}
		mu.Lock()
		report.DNS = rec
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		if err := f.wait(ctx); err != nil {
			fail("http", err)
			return
		}
		sctx, cancel := context.WithTimeout(ctx, f.Timeout)
		defer cancel()
		rec := checkLiveness(sctx, f.HTTP, domain)
		mu.Lock()
		report.HTTP = rec
		mu.Unlock()
	}()

	wg.Wait()

	logger.Debugw("domain fetched",
		"domain", domain,
		"registered", report.Whois.Registered,
		"alive", report.HTTP.Alive,
		"errors", len(report.Errors))
	return report
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.Limiter == nil {
		return nil
	}
	return f.Limiter.Wait(ctx)
}

func (f *Fetcher) concurrency() int {
	if f.Concurrency < 1 {
		return 1
	}
	return f.Concurrency
}

func (f *Fetcher) nowFunc() func() time.Time {
	if f.now == nil {
		return time.Now
	}
	return f.now
}
