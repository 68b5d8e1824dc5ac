/*
main.go - Application entry point

PURPOSE:
  The wageengine command: runs the HTTP server and offers the same
  calculations on the command line.

COMMANDS:
  serve                       HTTP API (see api/server.go)
  calc work-time START END    Paid hours of one shift
  calc holiday                Weekly holiday pay
  calc monthly                Monthly wage breakdown
  calc estimate               Shift to monthly estimate
  policy show                 Print the selected policy
  policy presets              List statutory presets
  policy validate FILE        Check a policy document

POLICY SELECTION (calc, policy show):
  --policy-file FILE  (or WAGE_POLICY_FILE)   JSON or YAML document
  --policy ID         (or WAGE_POLICY_ID)     statutory preset id
  otherwise                                   statutory defaults, no minimum wage

ENVIRONMENT:
  Read from the process and from .env; see config/config.go.

EXAMPLES:
  wageengine calc monthly --wage 10030 --days 5 --hours 8
  wageengine calc estimate --policy kr-2025 --wage 10030 --start 09:00 --end 18:00 --break 60 --days 5
  WAGE_DB_PATH=:memory: wageengine serve

SEE ALSO:
  - serve.go: server startup and graceful shutdown
  - calc.go, policy.go: CLI calculations
*/
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/wage-engine/config"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/wage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries state shared by every subcommand.
type app struct {
	verbose    bool
	policyFile string
	policyID   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wageengine",
		Short: "Korean hourly wage calculator and API server",
		Long: `wageengine computes paid hours, weekly holiday pay and monthly wages
for hourly employment contracts under Korean labor rules.

Run "wageengine serve" for the HTTP API, or use the calc subcommands.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if a.policyFile != "" {
				a.cfg.PolicyFile = a.policyFile
			}
			if a.policyID != "" {
				a.cfg.PolicyID = a.policyID
			}

			logger, err := newLogger(a.cfg.LogLevel, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.policyFile, "policy-file", "", "Policy document, JSON or YAML (or set WAGE_POLICY_FILE)")
	root.PersistentFlags().StringVar(&a.policyID, "policy", "", "Policy id, e.g. kr-2025 (or set WAGE_POLICY_ID)")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.calcCmd())
	root.AddCommand(a.policyCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// localPolicy resolves the policy for commands that run without a
// database.
func (a *app) localPolicy() (wage.Policy, error) {
	switch {
	case a.cfg.PolicyFile != "":
		p, err := factory.NewPolicyFactory().LoadPolicyFile(a.cfg.PolicyFile)
		if err != nil {
			return wage.Policy{}, err
		}
		a.logger.Debug("using policy file", zap.String("path", a.cfg.PolicyFile), zap.String("policy_id", p.ID))
		return p, nil
	case a.cfg.PolicyID != "":
		p, ok := factory.PresetByID(a.cfg.PolicyID)
		if !ok {
			return wage.Policy{}, fmt.Errorf("unknown policy %q; see \"wageengine policy presets\"", a.cfg.PolicyID)
		}
		return p.WithDefaults(), nil
	default:
		return wage.DefaultPolicy(), nil
	}
}

func (a *app) localService() (*wage.Service, error) {
	p, err := a.localPolicy()
	if err != nil {
		return nil, err
	}
	return wage.NewService(p)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
