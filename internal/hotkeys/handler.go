package hotkeys

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/intellidock/internal/x11"
)

// Handler manages global keyboard shortcuts. Callbacks are handed to post so
// they run on the daemon's event loop instead of the X event goroutine.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	post   func(func())
	logger *slog.Logger

	mu    sync.Mutex
	bound []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on conn.
func NewHandler(conn *x11.Connection, post func(func()), logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if post == nil {
		post = func(fn func()) { fn() }
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		post:   post,
		logger: logger,
	}
}

// RegisterToggle binds keySequence to toggle. An empty sequence is a no-op.
func (h *Handler) RegisterToggle(keySequence string, toggle func()) error {
	keySequence = strings.TrimSpace(keySequence)
	if keySequence == "" {
		return nil
	}
	if err := h.RegisterFunc(keySequence, func() {
		h.logger.Debug("toggle hotkey pressed", "keys", keySequence)
		toggle()
	}); err != nil {
		return fmt.Errorf("failed to register toggle hotkey %q: %w", keySequence, err)
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.post(callback)
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.bound = append(h.bound, keySequence)
	h.mu.Unlock()
	return nil
}

// Bound returns the key sequences currently grabbed.
func (h *Handler) Bound() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.bound)
}

// UnregisterAll releases every grab made through this handler, so a reload
// can rebind.
func (h *Handler) UnregisterAll() {
	h.mu.Lock()
	bound := h.bound
	h.bound = nil
	h.mu.Unlock()

	for _, keys := range bound {
		mods, codes, err := keybind.ParseString(h.xu, keys)
		if err != nil {
			continue
		}
		for _, code := range codes {
			keybind.Ungrab(h.xu, h.root, mods, code)
		}
	}
	keybind.Detach(h.xu, h.root)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")
	xevent.IgnoreMods = IgnoreMasks(caps, numLock, scrollLock)
}

// IgnoreMasks returns every combination of the lock modifiers, including
// none, so hotkeys fire regardless of CapsLock, NumLock or ScrollLock.
// Zero and duplicate masks are skipped.
func IgnoreMasks(locks ...uint16) []uint16 {
	var base []uint16
	for _, m := range locks {
		if m != 0 && !slices.Contains(base, m) {
			base = append(base, m)
		}
	}

	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	slices.Sort(out)
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
