// Command jmlctl operates the lifecycle engine from the terminal: submit
// events, inspect identities, query the audit trail, and dry-run policy
// resolution without touching any connector.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Raoof128/ILAE/internal/app"
	"github.com/Raoof128/ILAE/internal/platform/config"
	"github.com/Raoof128/ILAE/internal/platform/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		os.Exit(1)
	}
	// CLI output belongs to the command; keep log noise out of it.
	log := logger.New("text", "error")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap:", err)
		os.Exit(1)
	}
	defer application.Close()

	cmd := commands[os.Args[1]]
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err := cmd(ctx, application, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type commandFunc func(ctx context.Context, a *app.App, args []string) error

var commands = map[string]commandFunc{
	"submit":     runSubmit,
	"import":     runImport,
	"users":      runUsers,
	"show":       runShow,
	"summary":    runSummary,
	"audit":      runAudit,
	"compliance": runCompliance,
	"resolve":    runResolve,
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: jmlctl <command> [flags]

Commands:
  submit      Submit one HR event and run its workflow
  import      Parse an HR export file and run every event in it
  users       List known identities
  show        Show one identity with its entitlements
  summary     Aggregate counts across all identities
  audit       Query the audit trail
  compliance  Produce a compliance report for a period
  resolve     Dry-run policy resolution for a department and title

Run "jmlctl <command> --help" for command flags.
`)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.SortFlags = false
	return fs
}
