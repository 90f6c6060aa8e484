package pointer

import (
	"image"
	"sync"

	"go.uber.org/zap"
)

// ActionKind names a backend primitive.
type ActionKind string

const (
	ActionMoveTo    ActionKind = "move_to"
	ActionMoveRel   ActionKind = "move_rel"
	ActionMouseDown ActionKind = "mouse_down"
	ActionMouseUp   ActionKind = "mouse_up"
	ActionClick     ActionKind = "click"
	ActionScroll    ActionKind = "scroll"
)

// Action is one recorded backend call.
type Action struct {
	Kind   ActionKind `json:"kind"`
	X      int        `json:"x,omitempty"`
	Y      int        `json:"y,omitempty"`
	Button Button     `json:"button,omitempty"`
	Amount int        `json:"amount,omitempty"`
}

// Recorder is an in-memory Backend. It simulates a cursor confined to the
// screen, remembers every call, and can be told to fail specific actions.
// It backs the dry-run mode, recording replay and tests.
type Recorder struct {
	mu       sync.Mutex
	width    int
	height   int
	pos      image.Point
	pressed  bool
	actions  []Action
	failures map[ActionKind]error
	logger   *zap.Logger
}

// NewRecorder creates a Recorder for a screen of the given size with the
// cursor at the origin.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:    width,
		height:   height,
		failures: make(map[ActionKind]error),
		logger:   zap.NewNop(),
	}
}

// WithLogger makes the recorder log every action except cursor moves at
// Info level, and moves at Debug.
func (r *Recorder) WithLogger(logger *zap.Logger) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger.Named("dry-run")
	return r
}

// SetFailure makes every subsequent call of kind return err. A nil err
// clears the failure.
func (r *Recorder) SetFailure(kind ActionKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, kind)
		return
	}
	r.failures[kind] = err
}

func (r *Recorder) record(a Action) error {
	r.actions = append(r.actions, a)

	fields := []zap.Field{zap.String("kind", string(a.Kind))}
	switch a.Kind {
	case ActionMoveTo, ActionMoveRel:
		r.logger.Debug("Pointer action", append(fields, zap.Int("x", a.X), zap.Int("y", a.Y))...)
	case ActionClick:
		r.logger.Info("Pointer action", append(fields, zap.String("button", string(a.Button)))...)
	case ActionScroll:
		r.logger.Info("Pointer action", append(fields, zap.Int("amount", a.Amount))...)
	default:
		r.logger.Info("Pointer action", fields...)
	}

	return r.failures[a.Kind]
}

func (r *Recorder) confine(p image.Point) image.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if r.width > 0 && p.X > r.width-1 {
		p.X = r.width - 1
	}
	if r.height > 0 && p.Y > r.height-1 {
		p.Y = r.height - 1
	}
	return p
}

// MoveTo records an absolute move.
func (r *Recorder) MoveTo(x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Action{Kind: ActionMoveTo, X: x, Y: y}); err != nil {
		return err
	}
	r.pos = r.confine(image.Point{X: x, Y: y})
	return nil
}

// MoveRel records a relative move.
func (r *Recorder) MoveRel(dx, dy int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Action{Kind: ActionMoveRel, X: dx, Y: dy}); err != nil {
		return err
	}
	r.pos = r.confine(r.pos.Add(image.Point{X: dx, Y: dy}))
	return nil
}

// MouseDown records a left press.
func (r *Recorder) MouseDown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Action{Kind: ActionMouseDown}); err != nil {
		return err
	}
	r.pressed = true
	return nil
}

// MouseUp records a left release.
func (r *Recorder) MouseUp() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Action{Kind: ActionMouseUp}); err != nil {
		return err
	}
	r.pressed = false
	return nil
}

// Click records a click.
func (r *Recorder) Click(button Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record(Action{Kind: ActionClick, Button: button})
}

// Scroll records a scroll.
func (r *Recorder) Scroll(amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record(Action{Kind: ActionScroll, Amount: amount})
}

// Position returns the simulated cursor position.
func (r *Recorder) Position() image.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// ScreenSize returns the simulated screen size.
func (r *Recorder) ScreenSize() (int, int) {
	return r.width, r.height
}

// Pressed reports whether the simulated left button is held.
func (r *Recorder) Pressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pressed
}

// Actions returns a copy of every recorded call in order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Count returns how many calls of kind were recorded.
func (r *Recorder) Count(kind ActionKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Clicks returns how many clicks of button were recorded.
func (r *Recorder) Clicks(button Button) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		if a.Kind == ActionClick && a.Button == button {
			n++
		}
	}
	return n
}

// Scrolls returns the recorded scroll amounts in order.
func (r *Recorder) Scrolls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, a := range r.actions {
		if a.Kind == ActionScroll {
			out = append(out, a.Amount)
		}
	}
	return out
}

// Summary counts the recorded calls by kind.
func (r *Recorder) Summary() map[ActionKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[ActionKind]int)
	for _, a := range r.actions {
		out[a.Kind]++
	}
	return out
}
