// Package copybutton implements a copy-to-clipboard control that shows
// "Copied!" for a short window after a successful copy.
package copybutton

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"
)

type Size string

const (
	SizeSmall  Size = "sm"
	SizeMedium Size = "md"
)

const (
	LabelIdle   = "Copy"
	LabelCopied = "Copied!"

	// ResetAfter is how long the button stays in the Copied state.
	ResetAfter = 2000 * time.Millisecond
)

type State int

const (
	Idle State = iota
	Copied
)

func (s State) String() string {
	if s == Copied {
		return "copied"
	}
	return "idle"
}

var (
	ErrTextRequired = errors.New("copybutton: text is required")
	errNoClipboard  = errors.New("no clipboard available")
)

// Clipboard writes text to a clipboard. WriteText may block until the
// platform accepts or rejects the write.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Props struct {
	Text      string
	ClassName string
	Size      Size
}

type Option func(*Button)

// WithLogger routes diagnostic messages, such as clipboard failures.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(b *Button) { b.logf = logf }
}

func WithAfterFunc(af AfterFunc) Option {
	return func(b *Button) { b.afterFunc = af }
}

type Button struct {
	props     Props
	clipboard Clipboard
	logf      func(format string, args ...any)
	afterFunc AfterFunc

	mu     sync.Mutex
	state  State
	timer  Timer
	gen    uint64
	closed bool
}

// New builds a button for props. A nil clipboard is allowed for
// render-only use; activating such a button logs a failure.
func New(props Props, clipboard Clipboard, opts ...Option) (*Button, error) {
	if props.Text == "" {
		return nil, ErrTextRequired
	}
	if props.Size != SizeSmall {
		props.Size = SizeMedium
	}

	b := &Button{
		props:     props,
		clipboard: clipboard,
		logf:      func(format string, args ...any) { fmt.Printf(format, args...) },
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Activate copies the button's text. On success the button enters the
// Copied state for ResetAfter; re-activating restarts that window. A failed
// write is logged and leaves the state untouched.
func (b *Button) Activate(ctx context.Context) {
	var err error
	if b.clipboard == nil {
		err = errNoClipboard
	} else {
		err = b.clipboard.WriteText(ctx, b.props.Text)
	}
	if err != nil {
		b.logf("[COPY] Failed to copy text: %v\n", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.state = Copied
	b.gen++
	gen := b.gen
	b.timer = b.afterFunc(ResetAfter, func() { b.reset(gen) })
}

func (b *Button) reset(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// a newer activation or Close owns the state now
	if gen != b.gen || b.closed {
		return
	}
	b.state = Idle
	b.timer = nil
}

// Close cancels any pending reset. The button ignores activations afterwards.
func (b *Button) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.closed = true
	b.state = Idle
	b.gen++
}

func (b *Button) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Button) Label() string {
	return b.State().label()
}

func (s State) label() string {
	if s == Copied {
		return LabelCopied
	}
	return LabelIdle
}

func (b *Button) Props() Props {
	return b.props
}

var buttonTmpl = template.Must(template.New("copybutton").Parse(
	`<button type="button" class="{{.Class}}" data-copy-text="{{.Text}}" data-state="{{.State}}" aria-live="polite">{{.Label}}</button>`))

// Render writes the button as HTML.
func (b *Button) Render(w io.Writer) error {
	class := "copy-button copy-button--" + string(b.props.Size)
	if extra := strings.TrimSpace(b.props.ClassName); extra != "" {
		class += " " + extra
	}

	// one read so data-state and the label agree
	state := b.State()

	return buttonTmpl.Execute(w, struct {
		Class string
		Text  string
		State string
		Label string
	}{
		Class: class,
		Text:  b.props.Text,
		State: state.String(),
		Label: state.label(),
	})
}
