package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/gizmotray/internal/palette"
)

func runMenu(args []string) int {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/gizmotray/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: gizmotray menu [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the tray menu: Bring All To Front (default), Align All, Close All.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Backends: rofi, fuzzel, wofi, dmenu (configured via palette_backend, default: auto).")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	backend, err := palette.NewBackend(cfg.PaletteBackend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	t, err := newTray(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	action, err := palette.ShowTray(ctx, backend, t.fleetSize(ctx))
	if err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	summary, err := palette.Run(ctx, t.fleet, action)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(formatSummary(string(action), summary))
	return 0
}
