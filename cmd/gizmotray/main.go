package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/gizmotray/internal/config"
	"github.com/1broseidon/gizmotray/internal/fleet"
	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "front":
		os.Exit(runFront(os.Args[2:]))
	case "align":
		os.Exit(runAlign(os.Args[2:]))
	case "close":
		os.Exit(runClose(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "attach":
		os.Exit(runAttach(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "menu":
		os.Exit(runMenu(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: gizmotray <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  front               Bring all gizmos to the front")
	fmt.Fprintln(w, "  align               Stack all gizmos into one column")
	fmt.Fprintln(w, "  close               Close all gizmos")
	fmt.Fprintln(w, "  list                List running gizmos")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  attach              Turn an X11 window into a gizmo")
	fmt.Fprintln(w, "  daemon              Start the tray daemon (hotkeys, housekeeping)")
	fmt.Fprintln(w, "  menu                Open the tray menu")
	fmt.Fprintln(w, "  tui                 Open interactive TUI")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  config init         Write the default configuration")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'gizmotray <command> --help' for command-specific options.")
}

func isHelpArg(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// tray bundles what every fleet-facing command needs.
type tray struct {
	cfg    *config.Config
	logger *slog.Logger
	dir    *registry.Dir
	fleet  *fleet.Coordinator
}

func newTray(cfg *config.Config, logOut io.Writer) (*tray, error) {
	logger := logging.New(cfg.LogLevel, logOut)

	dir, err := registry.NewDir(cfg.RegistryDir)
	if err != nil {
		return nil, err
	}

	invoker := ipc.NewSocketInvoker(dir, cfg.CallTimeout, logger)
	coord := fleet.New(dir, invoker, fleet.Options{
		Separator:      &cfg.Separator,
		MaxConcurrency: cfg.MaxConcurrency,
		Logger:         logger,
	})

	return &tray{cfg: cfg, logger: logger, dir: dir, fleet: coord}, nil
}

// fleetSize counts the registered gizmos without contacting them.
func (t *tray) fleetSize(ctx context.Context) int {
	endpoints, err := t.dir.Discover(ctx, registry.GizmoServer)
	if err != nil {
		return 0
	}
	return len(endpoints)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func formatSummary(op string, s fleet.Summary) string {
	if s.Discovered == 0 {
		return op + ": no gizmos running"
	}
	msg := fmt.Sprintf("%s: %d of %d gizmos", op, s.Succeeded, s.Discovered)
	if s.Skipped > 0 {
		msg += fmt.Sprintf(" (%d skipped)", s.Skipped)
	}
	return msg
}
