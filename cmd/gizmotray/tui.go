package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/gizmotray/internal/tui"
)

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/gizmotray/config.yaml)")

	if isHelpArg(args) {
		fmt.Fprintln(os.Stderr, "Usage: gizmotray tui [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive view of the running gizmos.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  ↑/↓       Navigate gizmos")
		fmt.Fprintln(os.Stderr, "  f, Enter  Bring all to front")
		fmt.Fprintln(os.Stderr, "  a         Align all")
		fmt.Fprintln(os.Stderr, "  c         Close all (asks first)")
		fmt.Fprintln(os.Stderr, "  r         Refresh")
		fmt.Fprintln(os.Stderr, "  q, Esc    Quit")
		return 0
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// Logs would tear the alt screen; keep them out of the terminal.
	t, err := newTray(cfg, io.Discard)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := tui.Run(ctx, t.fleet); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
