package intel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/opsbolt/opsbolt/errors"
)

// RenderTable prints the batch as a terminal table.
func RenderTable(reports []*Report) error {
	data := pterm.TableData{
		{"DOMAIN", "REGISTERED", "REGISTRAR", "EXPIRES", "NAME SERVERS", "HTTP", "LATENCY", "ERRORS"},
	}
	for _, r := range reports {
		data = append(data, []string{
			r.Domain,
			yesNo(r.Whois.Registered),
			r.Whois.Registrar,
			r.Whois.Expires,
			strings.Join(r.NameServers(), " "),
			httpCell(r.HTTP),
			latencyCell(r.HTTP),
			strings.Join(r.Errors, "; "),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// WriteCSV writes the batch as CSV, one row per domain.
func WriteCSV(w io.Writer, reports []*Report) error {
	cw := csv.NewWriter(w)

	header := []string{
		"domain", "fetched_at", "registered", "registrar",
		"created", "expires", "name_servers", "addrs", "mx",
		"alive", "status_code", "latency_ms", "errors",
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	for _, r := range reports {
		row := []string{
			r.Domain,
			r.FetchedAt.UTC().Format(time.RFC3339),
			yesNo(r.Whois.Registered),
			r.Whois.Registrar,
			r.Whois.Created,
			r.Whois.Expires,
			strings.Join(r.NameServers(), " "),
			strings.Join(r.DNS.Addrs, " "),
			strings.Join(r.DNS.MX, " "),
			yesNo(r.HTTP.Alive),
			intCell(r.HTTP.StatusCode),
			fmt.Sprintf("%d", r.HTTP.Latency.Milliseconds()),
			strings.Join(r.Errors, "; "),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing CSV row for %s", r.Domain)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func httpCell(h LivenessRecord) string {
	if !h.Alive {
		return "dead"
	}
	return fmt.Sprintf("%d", h.StatusCode)
}

func latencyCell(h LivenessRecord) string {
	if !h.Alive {
		return ""
	}
	return h.Latency.Round(time.Millisecond).String()
}

func intCell(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
