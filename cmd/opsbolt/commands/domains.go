package commands

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/intel"
	"github.com/opsbolt/opsbolt/logger"
)

var (
	domainsFile        string
	domainsCSV         string
	domainsStore       string
	domainsConcurrency int
	domainsTimeout     int
)

// DomainsCmd aggregates WHOIS, DNS, and HTTP-liveness data per domain.
var DomainsCmd = &cobra.Command{
	Use:   "domains [domain...]",
	Short: "Fetch WHOIS, DNS, and HTTP-liveness intelligence per domain",
	Long: `Fetch and merge registry (WHOIS), resolver (DNS), and HTTP-liveness
data for each domain. Sources fail independently: a registry timeout leaves
the DNS and liveness sections intact and is reported in the errors column.

Domains come from arguments, --file (one per line, # comments), or both.

Example:
  opsbolt domains example.com example.org
  opsbolt domains --file domains.txt --csv report.csv --store snapshots.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		domains := append([]string{}, args...)
		if domainsFile != "" {
			fromFile, err := readDomainsFile(domainsFile)
			if err != nil {
				return err
			}
			domains = append(domains, fromFile...)
		}
		if len(domains) == 0 {
			cmd.SilenceUsage = false
			return errors.WithHint(errors.ErrUsage, "give domains as arguments or via --file")
		}

		fetchCfg := cfg.Fetch
		if domainsConcurrency > 0 {
			fetchCfg.Concurrency = domainsConcurrency
		}
		if domainsTimeout > 0 {
			fetchCfg.TimeoutSeconds = domainsTimeout
		}

		fetcher := intel.NewFetcher(fetchCfg)

		start := time.Now()
		reports := fetcher.FetchAll(cmd.Context(), domains)
		logger.Infow("batch fetched", "domains", len(reports), "elapsed", time.Since(start).Round(time.Millisecond))

		if domainsStore != "" {
			store, err := intel.Open(domainsStore)
			if err != nil {
				return err
			}
			defer store.Close()
			for _, r := range reports {
				if err := store.Save(cmd.Context(), r); err != nil {
					return err
				}
			}
		}

		if domainsCSV != "" {
			f, err := os.Create(domainsCSV)
			if err != nil {
				return errors.Wrapf(err, "creating %s", domainsCSV)
			}
			defer f.Close()
			return intel.WriteCSV(f, reports)
		}

		return intel.RenderTable(reports)
	},
}

func readDomainsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening domain list %s", path)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading domain list %s", path)
	}
	return domains, nil
}

func init() {
	DomainsCmd.Flags().StringVar(&domainsFile, "file", "", "File with one domain per line")
	DomainsCmd.Flags().StringVar(&domainsCSV, "csv", "", "Write the batch as CSV to this path instead of a table")
	DomainsCmd.Flags().StringVar(&domainsStore, "store", "", "SQLite snapshot store to append results to")
	DomainsCmd.Flags().IntVar(&domainsConcurrency, "concurrency", 0, "Domains fetched in parallel (default: from config)")
	DomainsCmd.Flags().IntVar(&domainsTimeout, "timeout", 0, "Per-source timeout in seconds (default: from config)")
}
