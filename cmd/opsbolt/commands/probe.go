package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/internal/httpclient"
	"github.com/opsbolt/opsbolt/probe"
)

var probeTimeout int

// ProbeCmd runs a single HTTP request and prints status and phase timings.
var ProbeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "One-line HTTP status and timing probe",
	Long: `Issue one GET request and print the status plus per-phase timings
(DNS, connect, TLS, time to first byte, total) on a single line.

A URL without a scheme is probed over https.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		url := args[0]
		if !strings.Contains(url, "://") {
			url = "https://" + url
		}

		timeout := cfg.Probe.ProbeTimeout()
		if probeTimeout > 0 {
			timeout = time.Duration(probeTimeout) * time.Second
		}

		client := httpclient.New(timeout, httpclient.Options{AllowPrivate: true})
		res, err := probe.Do(cmd.Context(), client, url)
		if err != nil {
			return errors.Wrapf(err, "probing %s", url)
		}

		fmt.Println(res.String())
		return nil
	},
}

func init() {
	ProbeCmd.Flags().IntVar(&probeTimeout, "timeout", 0, "Request timeout in seconds (default: from config)")
}
