package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Binding ties a key sequence (e.g. "Mod4-Shift-f") to an action.
// Bindings with empty Keys are disabled.
type Binding struct {
	Name   string
	Keys   string
	Action func(ctx context.Context)
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	ctx    context.Context
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. Actions run with ctx.
func NewHandler(ctx context.Context, backend platform.Backend, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("backend does not support global hotkeys")
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   accessor.RootWindow(),
		ctx:    ctx,
		logger: logging.OrDiscard(logger),
	}, nil
}

// RegisterAll grabs every enabled binding and returns how many were
// registered. It stops at the first grab failure.
func (h *Handler) RegisterAll(bindings []Binding) (int, error) {
	n := 0
	for _, b := range bindings {
		if b.Keys == "" {
			h.logger.Debug("hotkey disabled", "action", b.Name)
			continue
		}
		if err := h.RegisterFunc(b.Keys, runner(h.ctx, b, h.logger)); err != nil {
			return n, fmt.Errorf("failed to register %s hotkey %q: %w", b.Name, b.Keys, err)
		}
		h.logger.Info("hotkey registered", "action", b.Name, "keys", b.Keys)
		n++
	}
	return n, nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// runner returns a key callback that runs the binding's action off the X
// event loop. Presses that arrive while the action is still running are
// dropped.
func runner(ctx context.Context, b Binding, logger *slog.Logger) func() {
	logger = logging.OrDiscard(logger)
	var busy atomic.Bool
	return func() {
		if !busy.CompareAndSwap(false, true) {
			logger.Debug("hotkey ignored, action still running", "action", b.Name)
			return
		}
		logger.Debug("hotkey triggered", "action", b.Name)
		go func() {
			defer busy.Store(false)
			defer func() {
				if r := recover(); r != nil {
					logger.Error("hotkey action panicked", "action", b.Name, "panic", r)
				}
			}()
			b.Action(ctx)
		}()
	}
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
