package main

import (
	"context"
	"fmt"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/seed"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// reseeder is the write side of the report store.
type reseeder interface {
	Reseed(ctx context.Context, docs []domain.RawDocument) (int, error)
}

func newSeedCommand(a *app) *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the report collection with synthetic demo data",
		Long: `Clear the report collection and insert synthetic reports scattered
around each AOR center.

Examples:
  # Default demo batch
  intelctl seed

  # Larger batch with 10% malformed rows to exercise normalization
  intelctl seed --count 500 --malformed 0.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			gen, err := seed.NewGenerator(domain.DefaultRegistry(), clockwork.NewRealClock(), nil, opts)
			if err != nil {
				return err
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return a.fail("connect report store", err)
			}
			defer store.Close(context.WithoutCancel(ctx)) //nolint:errcheck // exiting

			n, err := runSeed(ctx, gen, store)
			if err != nil {
				return a.fail("seed reports", err)
			}
			a.logger.Info("reports seeded", "count", n, "malformed_ratio", opts.MalformedRatio)
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d reports.\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", seed.DefaultCount, "number of reports to generate")
	cmd.Flags().Float64Var(&opts.MalformedRatio, "malformed", 0, "fraction of reports with bad position, intensity, or timestamp (0-1)")
	cmd.Flags().BoolVar(&opts.LegacyKeys, "legacy-keys", false, `file reports under "ccom" instead of "aor"`)
	return cmd
}

func runSeed(ctx context.Context, p seed.Producer, store reseeder) (int, error) {
	docs, err := p.Produce(ctx)
	if err != nil {
		return 0, fmt.Errorf("produce: %w", err)
	}
	return store.Reseed(ctx, docs)
}
