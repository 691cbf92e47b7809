package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/1broseidon/gizmotray/internal/fleet"
)

// fleetCommand holds the shared flags of front/align/close.
type fleetCommand struct {
	fs   *flag.FlagSet
	path *string
}

func newFleetCommand(name, usage string) *fleetCommand {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	c := &fleetCommand{
		fs:   fs,
		path: fs.String("path", "", "Config file path (default: ~/.config/gizmotray/config.yaml)"),
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gizmotray %s [--path PATH]\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	return c
}

// parse returns -1 on success, otherwise the exit code to return.
func (c *fleetCommand) parse(args []string) int {
	if err := c.fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if c.fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", c.fs.Name())
		return 2
	}
	return -1
}

func (c *fleetCommand) tray() (*tray, int) {
	cfg, err := loadConfig(*c.path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}
	t, err := newTray(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}
	return t, 0
}

func runFront(args []string) int {
	c := newFleetCommand("front", "Activate every running gizmo.")
	if rc := c.parse(args); rc >= 0 {
		return rc
	}
	t, rc := c.tray()
	if t == nil {
		return rc
	}

	ctx, cancel := signalContext()
	defer cancel()
	fmt.Println(formatSummary("bring all to front", t.fleet.BringAllToFront(ctx)))
	return 0
}

func runAlign(args []string) int {
	c := newFleetCommand("align", "Stack every running gizmo into one left-aligned column.")
	if rc := c.parse(args); rc >= 0 {
		return rc
	}
	t, rc := c.tray()
	if t == nil {
		return rc
	}

	ctx, cancel := signalContext()
	defer cancel()
	fmt.Println(formatSummary("align all", t.fleet.AlignAll(ctx)))
	return 0
}

func runClose(args []string) int {
	c := newFleetCommand("close", "Close every running gizmo. Asks first when run from a terminal.")
	yes := c.fs.Bool("yes", false, "Do not ask for confirmation")
	if rc := c.parse(args); rc >= 0 {
		return rc
	}
	t, rc := c.tray()
	if t == nil {
		return rc
	}

	ctx, cancel := signalContext()
	defer cancel()

	n := t.fleetSize(ctx)
	if n == 0 {
		fmt.Println(formatSummary("close all", fleet.Summary{}))
		return 0
	}

	if !*yes && term.IsTerminal(int(os.Stdin.Fd())) {
		ok, err := confirmClose(n)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("close all: cancelled")
				return 0
			}
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !ok {
			fmt.Println("close all: cancelled")
			return 0
		}
	}

	fmt.Println(formatSummary("close all", t.fleet.CloseAll(ctx)))
	return 0
}

func confirmClose(n int) (bool, error) {
	var ok bool
	title := "Close 1 gizmo?"
	if n != 1 {
		title = fmt.Sprintf("Close all %d gizmos?", n)
	}
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Close").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

func runList(args []string) int {
	c := newFleetCommand("list", "List running gizmos with their geometry.")
	asJSON := c.fs.Bool("json", false, "Output JSON")
	if rc := c.parse(args); rc >= 0 {
		return rc
	}
	t, rc := c.tray()
	if t == nil {
		return rc
	}

	ctx, cancel := signalContext()
	defer cancel()
	statuses := t.fleet.List(ctx)

	if *asJSON {
		if statuses == nil {
			statuses = []fleet.Status{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(statuses); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	printStatuses(os.Stdout, statuses)
	return 0
}

func printStatuses(w io.Writer, statuses []fleet.Status) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No gizmos running.")
		return
	}
	for _, st := range statuses {
		if !st.Reachable {
			fmt.Fprintf(w, "%-24s  unreachable  %s\n", st.Endpoint, st.Error)
			continue
		}
		r := st.Rect
		geom := fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.Left, r.Top)
		fmt.Fprintf(w, "%-24s  %-18s  %s\n", st.Endpoint, geom, st.Title)
	}
}
