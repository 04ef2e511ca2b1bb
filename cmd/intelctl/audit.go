package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/observability"
	"github.com/couchcryptid/aor-intel-dashboard/internal/pipeline"
	"github.com/spf13/cobra"
)

func newAuditCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report per-AOR data quality of the stored reports",
		Long: `Run the query-and-normalize pipeline for every AOR and print how many
documents were fetched, kept, and dropped. An AOR with dropped rows or
unparseable timestamps is flagged WARN. Exits non-zero if the store cannot
be queried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return a.fail("connect report store", err)
			}
			defer store.Close(context.WithoutCancel(ctx)) //nolint:errcheck // exiting

			p := pipeline.New(store, domain.DefaultRegistry(), a.logger, observability.NewMetrics(), a.cfg.QueryTimeout)
			if _, err := runAudit(ctx, p, cmd.OutOrStdout()); err != nil {
				return a.fail("audit reports", err)
			}
			return nil
		},
	}
}

// auditResult is the data-quality verdict for one AOR.
type auditResult struct {
	aor   string
	stats domain.Stats
}

func (r auditResult) status() string {
	switch {
	case r.stats.Fetched == 0:
		return "\033[33mEMPTY\033[0m"
	case r.stats.DroppedTotal() > 0 || r.stats.InvalidTimestamps > 0:
		return "\033[33mWARN\033[0m"
	default:
		return "\033[32mPASS\033[0m"
	}
}

func (r auditResult) clean() bool {
	return r.stats.DroppedTotal() == 0 && r.stats.InvalidTimestamps == 0
}

// runAudit fetches every registered AOR and writes a summary table to w. It
// reports whether every AOR was clean, and stops at the first store fault.
func runAudit(ctx context.Context, p *pipeline.Pipeline, w io.Writer) (bool, error) {
	fmt.Fprintln(w, "=== Report Store Audit ===")
	fmt.Fprintln(w)

	var results []auditResult
	for _, aor := range p.Registry().Keys() {
		res, err := p.Fetch(ctx, aor)
		if err != nil {
			return false, err
		}
		results = append(results, auditResult{aor: aor, stats: res.Dataset.Stats})
	}

	allClean := true
	var fetched, kept int
	for _, r := range results {
		fmt.Fprintf(w, "  %-14s fetched=%-5d kept=%-5d dropped=%-5d invalid_ts=%-5d %s\n",
			r.aor, r.stats.Fetched, r.stats.Kept, r.stats.DroppedTotal(), r.stats.InvalidTimestamps, r.status())
		fetched += r.stats.Fetched
		kept += r.stats.Kept
		allClean = allClean && r.clean()
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Reports: %d fetched, %d kept\n", fetched, kept)

	for _, r := range results {
		if len(r.stats.Dropped) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", r.aor)
		fmt.Fprintf(w, "  dropped: %s\n", formatDropped(r.stats.Dropped))
	}

	if allClean {
		fmt.Fprintln(w, "\nAll AORs clean.")
	} else {
		fmt.Fprintln(w, "\nData quality warnings found.")
	}
	return allClean, nil
}

func formatDropped(dropped map[domain.DropReason]int) string {
	reasons := make([]string, 0, len(dropped))
	for reason := range dropped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", reason, dropped[domain.DropReason(reason)])
	}
	return strings.Join(parts, " ")
}
