// Package tray provides the system tray menu of the hand pointer: an
// enable toggle, the live gesture status and Quit.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handpointer/internal/gesture"
)

const statusReady = "READY"

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	status   string
	last     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  statusReady,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and runs work until it returns or Quit is clicked,
// which cancels work's context. It blocks the calling goroutine, which
// must be the main one on macOS, and returns work's error.
func (t *Tray) Run(ctx context.Context, work func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.OnQuit(chain(t.quitCallback(), cancel))

	errCh := make(chan error, 1)
	systray.Run(func() {
		t.onReady()
		go func() {
			errCh <- work(ctx)
			systray.Quit()
		}()
	}, t.onExit)

	cancel()
	return <-errCh
}

func (t *Tray) quitCallback() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onQuit
}

func chain(fns ...func()) func() {
	return func() {
		for _, fn := range fns {
			if fn != nil {
				fn()
			}
		}
	}
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Hand Pointer")
	systray.SetTooltip("Hand Pointer gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pointer control")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Status: "+t.status, "Current gesture")
	t.menuStatus.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last gesture")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Hand Pointer")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// Observe updates the status lines from a frame snapshot. The menu is only
// touched when the status changes. It is safe to call from the frame loop.
func (t *Tray) Observe(snap gesture.Snapshot) {
	status := snap.Status()

	t.mu.Lock()
	defer t.mu.Unlock()

	if status == t.status {
		return
	}
	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle("Status: " + status)
	}

	if status != statusReady {
		t.last = status
		if t.menuLast != nil {
			t.menuLast.SetTitle(lastTitle(status))
		}
	}
}

// Status returns the status line currently shown.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// LastGesture returns the most recent non-idle status, or "".
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(last string) string {
	if last == "" {
		return "Last: none"
	}
	return "Last: " + last
}
