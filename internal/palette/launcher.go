package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// launcher drives any dmenu-compatible program over stdin/stdout.
type launcher struct {
	command string
	caps    Capabilities
}

func newLauncher(command string) *launcher {
	l := &launcher{command: command}
	switch command {
	case "rofi":
		l.caps = Capabilities{Icons: true, Markup: true, NonSelectable: true, IndexOutput: true, MessageBar: true}
	case "fuzzel":
		l.caps = Capabilities{Icons: true, IndexOutput: true}
	case "wofi":
		l.caps = Capabilities{Icons: true, Markup: true}
	}
	return l
}

func (l *launcher) Capabilities() Capabilities {
	return l.caps
}

func (l *launcher) Show(ctx context.Context, prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	displayItems := make([]Item, len(items))
	copy(displayItems, items)

	input, selected := l.formatInput(displayItems)
	args := l.buildArgs(prompt, message, selected)

	cmd := exec.CommandContext(ctx, l.command, args...)
	cmd.Stdin = strings.NewReader(input)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))

	if err != nil {
		if ctx.Err() != nil {
			return Item{}, ctx.Err()
		}
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Item{}, fmt.Errorf("%s failed: %s", l.command, msg)
		}
		return Item{}, fmt.Errorf("%s failed: %w", l.command, err)
	}

	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parseSelection(selection, displayItems)
}

func (l *launcher) buildArgs(prompt, message string, selected int) []string {
	var args []string

	switch l.command {
	case "rofi":
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		// Output only the index; labels may contain markup.
		args = append(args, "-format", "i", "-no-custom", "-markup-rows", "-show-icons")
		if selected >= 0 {
			args = append(args, "-a", strconv.Itoa(selected), "-selected-row", strconv.Itoa(selected))
		}
		if message != "" {
			args = append(args, "-mesg", message)
		}

	case "fuzzel":
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	case "wofi":
		args = []string{"--dmenu", "--allow-markup", "--allow-images"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	default:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}

	return args
}

// formatInput renders items one per line and returns the row to preselect:
// the first active selectable row, else the first selectable row, else -1.
func (l *launcher) formatInput(items []Item) (string, int) {
	// Text-matching backends need unique labels.
	if !l.caps.IndexOutput {
		seen := make(map[string]int)
		for i := range items {
			if !items[i].selectable() {
				continue
			}
			key := sanitizeLabel(items[i].Label)
			if count := seen[key]; count > 0 {
				items[i].Label = fmt.Sprintf("%s (%d)", key, count+1)
			}
			seen[key]++
		}
	}

	lines := make([]string, 0, len(items))
	firstSelectable, firstActive := -1, -1
	for i, item := range items {
		lines = append(lines, l.formatItem(item))
		if !item.selectable() {
			continue
		}
		if firstSelectable == -1 {
			firstSelectable = i
		}
		if item.IsActive && firstActive == -1 {
			firstActive = i
		}
	}

	if firstActive != -1 {
		return strings.Join(lines, "\n"), firstActive
	}
	return strings.Join(lines, "\n"), firstSelectable
}

func (l *launcher) formatItem(item Item) string {
	display := sanitizeLabel(item.Label)
	if l.caps.Markup {
		display = html.EscapeString(display)
		switch {
		case item.IsHeader || item.IsActive:
			display = "<b>" + display + "</b>"
		case item.IsDivider:
			display = "<span foreground='#666666'>" + display + "</span>"
		}
	}

	// rofi row properties: one NUL, then key\x1fvalue pairs joined by \x1f.
	if l.command != "rofi" {
		return display
	}

	var attrs []string
	if !item.selectable() {
		attrs = append(attrs, "nonselectable", "true")
	}
	if item.Icon != "" {
		attrs = append(attrs, "icon", sanitizeRofiField(item.Icon))
	}
	if item.Meta != "" {
		attrs = append(attrs, "meta", sanitizeRofiField(item.Meta))
	}
	if len(attrs) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(attrs, "\x1f")
}

func (l *launcher) parseSelection(selection string, items []Item) (Item, error) {
	var item Item
	if l.caps.IndexOutput {
		idx, err := strconv.Atoi(selection)
		if err != nil {
			return Item{}, fmt.Errorf("palette: unexpected selection %q", selection)
		}
		if idx < 0 || idx >= len(items) {
			return Item{}, fmt.Errorf("palette: index %d out of range", idx)
		}
		item = items[idx]
	} else {
		// wofi echoes the rendered line, markup included; dmenu the plain label.
		found := false
		for _, candidate := range items {
			if sanitizeLabel(candidate.Label) == selection || l.formatItem(candidate) == selection {
				item, found = candidate, true
				break
			}
		}
		if !found {
			return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
		}
	}

	if !item.selectable() {
		return Item{}, ErrCancelled
	}
	return item, nil
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeRofiField(value string) string {
	// Avoid breaking the \0key\x1fvalue protocol with control separators.
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// Launchers use 1 for "no selection" and 130 for Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
