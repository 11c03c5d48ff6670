package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"insights-dashboard/internal/logging"
)

// Category is the visual kind of a popup.
type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryDanger  Category = "danger"
)

// Icon returns the glyph shown next to the popup title.
func (c Category) Icon() string {
	switch c {
	case CategorySuccess:
		return "✅"
	case CategoryWarning:
		return "⚠️"
	case CategoryDanger:
		return "🚨"
	default:
		return "ℹ️"
	}
}

// Default confirm dialog buttons.
const (
	ConfirmText = "אישור"
	CancelText  = "ביטול"
)

// Config is the payload of a popup. A zero Duration keeps it open until it
// is hidden or replaced.
type Config struct {
	Title    string
	Message  string
	Category Category
	Duration time.Duration
}

// Popup is the observable popup state.
type Popup struct {
	Config
	Open bool
	// Instance identifies one Show call. Timers only close the instance they
	// were scheduled for.
	Instance string
	// Confirm marks a dialog that waits for Confirm or Cancel.
	Confirm     bool
	ConfirmText string
	CancelText  string
}

// Scheduler runs f after d and returns a function that cancels it.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func realScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Popups is a single-slot popup: at most one is open and the last Show wins.
// It is safe for concurrent use.
type Popups struct {
	mu        sync.Mutex
	current   Popup
	stopTimer func() bool
	onConfirm func()
	listeners []func(Popup)
	schedule  Scheduler
	logger    zerolog.Logger
}

// NewPopups creates a closed popup slot.
func NewPopups(logger zerolog.Logger) *Popups {
	return NewPopupsWithScheduler(logger, realScheduler)
}

// NewPopupsWithScheduler creates a popup slot with a custom timer source.
func NewPopupsWithScheduler(logger zerolog.Logger, schedule Scheduler) *Popups {
	return &Popups{
		schedule: schedule,
		logger:   logging.WithComponent(logger, "popup"),
	}
}

// OnChange registers fn to be called after every state change. Listeners run
// outside the lock, in registration order.
func (p *Popups) OnChange(fn func(Popup)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Current returns the current popup state.
func (p *Popups) Current() Popup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Show opens a popup, replacing any open one.
func (p *Popups) Show(cfg Config) Popup {
	return p.open(Popup{Config: cfg}, nil)
}

// ShowSuccess shows a success popup.
func (p *Popups) ShowSuccess(title, message string, duration time.Duration) Popup {
	return p.Show(Config{Title: title, Message: message, Category: CategorySuccess, Duration: duration})
}

// ShowWarning shows a warning popup.
func (p *Popups) ShowWarning(title, message string, duration time.Duration) Popup {
	return p.Show(Config{Title: title, Message: message, Category: CategoryWarning, Duration: duration})
}

// ShowError shows a danger popup.
func (p *Popups) ShowError(title, message string, duration time.Duration) Popup {
	return p.Show(Config{Title: title, Message: message, Category: CategoryDanger, Duration: duration})
}

// ShowInfo shows an info popup.
func (p *Popups) ShowInfo(title, message string, duration time.Duration) Popup {
	return p.Show(Config{Title: title, Message: message, Category: CategoryInfo, Duration: duration})
}

// Ask opens a confirm dialog. onConfirm runs when Confirm is called while
// this dialog is still the open one.
func (p *Popups) Ask(title, message string, onConfirm func()) Popup {
	return p.AskWith(title, message, ConfirmText, CancelText, onConfirm)
}

// AskWith is Ask with custom button captions.
func (p *Popups) AskWith(title, message, confirmText, cancelText string, onConfirm func()) Popup {
	return p.open(Popup{
		Config:      Config{Title: title, Message: message, Category: CategoryWarning},
		Confirm:     true,
		ConfirmText: confirmText,
		CancelText:  cancelText,
	}, onConfirm)
}

// Confirm runs the pending confirm action and closes the dialog. It reports
// whether a confirm dialog was open.
func (p *Popups) Confirm() bool {
	p.mu.Lock()
	if !p.current.Open || !p.current.Confirm {
		p.mu.Unlock()
		return false
	}
	instance := p.current.Instance
	fn := p.onConfirm
	p.onConfirm = nil
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
	p.closeInstance(instance)
	return true
}

// Cancel closes an open confirm dialog without running its action.
func (p *Popups) Cancel() bool {
	p.mu.Lock()
	if !p.current.Open || !p.current.Confirm {
		p.mu.Unlock()
		return false
	}
	instance := p.current.Instance
	p.mu.Unlock()

	p.closeInstance(instance)
	return true
}

// Hide closes whatever is open. Closing a closed popup is a no-op.
func (p *Popups) Hide() {
	p.mu.Lock()
	instance := p.current.Instance
	p.mu.Unlock()
	p.closeInstance(instance)
}

func (p *Popups) open(next Popup, onConfirm func()) Popup {
	next.Open = true
	next.Instance = uuid.NewString()

	p.mu.Lock()
	if p.stopTimer != nil {
		p.stopTimer()
		p.stopTimer = nil
	}
	p.current = next
	p.onConfirm = onConfirm
	if next.Duration > 0 && !next.Confirm {
		instance := next.Instance
		p.stopTimer = p.schedule(next.Duration, func() {
			p.closeInstance(instance)
		})
	}
	listeners := p.listeners
	p.mu.Unlock()

	logging.LogPopup(p.logger, next.Instance, string(next.Category), next.Title, next.Duration)
	notifyAll(listeners, next)
	return next
}

// closeInstance closes the popup only if instance is still the open one, so
// a stale timer or a late Confirm never closes a newer popup.
func (p *Popups) closeInstance(instance string) {
	p.mu.Lock()
	if !p.current.Open || p.current.Instance != instance {
		p.mu.Unlock()
		return
	}
	p.current.Open = false
	p.onConfirm = nil
	if p.stopTimer != nil {
		p.stopTimer()
		p.stopTimer = nil
	}
	state := p.current
	listeners := p.listeners
	p.mu.Unlock()

	notifyAll(listeners, state)
}

func notifyAll(listeners []func(Popup), state Popup) {
	for _, fn := range listeners {
		fn(state)
	}
}
