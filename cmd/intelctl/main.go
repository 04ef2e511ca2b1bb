// Command intelctl manages the report store behind the dashboard: it seeds
// demo data and audits per-AOR data quality.
//
// Usage:
//
//	intelctl seed --count 100 --malformed 0.1
//	intelctl audit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mongoadapter "github.com/couchcryptid/aor-intel-dashboard/internal/adapter/mongo"
	"github.com/couchcryptid/aor-intel-dashboard/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root pre-run has loaded it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&app{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "intelctl",
		Short:         "Manage the AOR intelligence report store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	root.AddCommand(newSeedCommand(a), newAuditCommand(a))
	return root
}

// openStore connects to the configured store. The caller closes it.
func (a *app) openStore(ctx context.Context) (*mongoadapter.Store, error) {
	client, err := mongoadapter.Connect(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	return mongoadapter.NewStore(client, a.cfg, a.logger), nil
}

// fail logs err and returns it so cobra exits non-zero.
func (a *app) fail(msg string, err error) error {
	a.logger.Error(msg, "error", err)
	return fmt.Errorf("%s: %w", msg, err)
}
