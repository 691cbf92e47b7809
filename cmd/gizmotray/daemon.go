package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/1broseidon/gizmotray/internal/daemon"
	"github.com/1broseidon/gizmotray/internal/fleet"
	"github.com/1broseidon/gizmotray/internal/hotkeys"
	"github.com/1broseidon/gizmotray/internal/platform"
	"github.com/1broseidon/gizmotray/internal/registry"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/gizmotray/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: gizmotray daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the tray in the foreground: global hotkeys for front/align/close/menu,")
		fmt.Fprintln(os.Stderr, "stale socket cleanup and fleet change logging.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	t, err := newTray(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to open gizmo registry: %v", err)
	}
	log.Printf("Configuration loaded (registry: %s, separator: %dpx)", t.dir.Root(), cfg.Separator)

	backend, err := platform.NewLinuxBackendFromDisplay(true)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	ctx, cancel := signalContext()
	defer cancel()

	handler, err := hotkeys.NewHandler(ctx, backend, t.logger)
	if err != nil {
		log.Fatalf("Failed to set up hotkeys: %v", err)
	}

	logSummary := func(op string, s fleet.Summary) {
		t.logger.Debug("hotkey command finished", "command", op,
			"discovered", s.Discovered, "succeeded", s.Succeeded, "skipped", s.Skipped)
	}
	bindings := []hotkeys.Binding{
		{Name: "front", Keys: cfg.FrontHotkey, Action: func(ctx context.Context) {
			logSummary("front", t.fleet.BringAllToFront(ctx))
		}},
		{Name: "align", Keys: cfg.AlignHotkey, Action: func(ctx context.Context) {
			logSummary("align", t.fleet.AlignAll(ctx))
		}},
		{Name: "close", Keys: cfg.CloseHotkey, Action: func(ctx context.Context) {
			logSummary("close", t.fleet.CloseAll(ctx))
		}},
		{Name: "menu", Keys: cfg.MenuHotkey, Action: func(ctx context.Context) {
			launchMenu(*path)
		}},
	}
	n, err := handler.RegisterAll(bindings)
	if err != nil {
		log.Fatalf("Failed to register hotkeys: %v", err)
	}
	log.Printf("%d hotkeys registered", n)

	go func() {
		err := daemon.Run(ctx, t.dir, daemon.Options{
			SweepInterval: cfg.SweepInterval,
			Logger:        t.logger,
			OnChange: func(ev registry.Event, running []registry.Endpoint) {
				log.Println(fleetChangeLine(ev, running))
			},
		})
		if err != nil {
			t.logger.Error("housekeeping stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down gizmotray daemon...")
		backend.QuitEventLoop()
	}()

	log.Println("Entering event loop...")
	backend.EventLoop()
	return 0
}

// launchMenu runs "gizmotray menu" as a child so the palette never blocks
// hotkey handling.
func launchMenu(configPath string) {
	exe, err := os.Executable()
	if err != nil {
		log.Printf("Menu: failed to find executable: %v", err)
		return
	}
	args := []string{"menu"}
	if configPath != "" {
		args = append(args, "--path", configPath)
	}
	cmd := exec.Command(exe, args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		log.Printf("Menu: failed to launch: %v", err)
		return
	}
	cmd.Wait()
}

func fleetChangeLine(ev registry.Event, running []registry.Endpoint) string {
	names := make([]string, len(running))
	for i, name := range running {
		names[i] = string(name)
	}
	list := "none"
	if len(names) > 0 {
		list = strings.Join(names, ", ")
	}
	return fmt.Sprintf("Gizmo %s %s (running: %s)", ev.Endpoint, ev.Kind, list)
}
