package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/gizmotray/internal/gizmo"
	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/platform"
	"github.com/1broseidon/gizmotray/internal/registry"
)

func runAttach(args []string) int {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/gizmotray/config.yaml)")
	name := fs.String("name", "", "Endpoint name (default: derived from the window title)")
	active := fs.Bool("active", false, "Attach the currently focused window")
	list := fs.Bool("list", false, "List attachable windows and exit")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: gizmotray attach [--name NAME] <window-id>")
		fmt.Fprintln(os.Stderr, "       gizmotray attach [--name NAME] --active")
		fmt.Fprintln(os.Stderr, "       gizmotray attach --list")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Serve an existing X11 window as a gizmo until interrupted or closed")
		fmt.Fprintln(os.Stderr, "by the tray. Window ids may be decimal or 0x-prefixed hex.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	// Exactly one of <window-id>, --active or --list.
	if !validAttachArgs(fs.NArg(), *active, *list) {
		fs.Usage()
		return 2
	}
	if *name != "" {
		if err := registry.ValidateName(registry.Endpoint(*name)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	var windowID platform.WindowID
	if fs.NArg() == 1 {
		id, err := parseWindowID(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		windowID = id
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	backend, err := platform.NewLinuxBackendFromDisplay(false)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	if *list {
		windows, err := backend.ListWindows()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range windows {
			fmt.Printf("0x%08x  %dx%d+%d+%d  %s\n", uint32(w.ID), w.Bounds.Width, w.Bounds.Height, w.Bounds.X, w.Bounds.Y, w.Title)
		}
		return 0
	}

	if *active {
		windowID, err = backend.ActiveWindow()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to get active window: %v\n", err)
			return 1
		}
	}

	w, err := gizmo.NewWindow(backend, windowID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	endpoint := registry.Endpoint(*name)
	if endpoint == "" {
		endpoint = gizmo.DefaultName(w.Title())
	}

	dir, err := registry.NewDir(cfg.RegistryDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Printf("Attaching window 0x%x as gizmo %q", uint32(w.ID()), endpoint)
	if err := gizmo.Serve(ctx, dir, endpoint, w, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseWindowID(s string) (platform.WindowID, error) {
	s = strings.TrimSpace(s)
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return platform.WindowID(id), nil
}

func validAttachArgs(nargs int, active, list bool) bool {
	selected := 0
	if nargs > 0 {
		selected++
	}
	if active {
		selected++
	}
	if list {
		selected++
	}
	return nargs <= 1 && selected == 1
}
