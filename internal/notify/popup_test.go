package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

// fakeScheduler records timers so tests can fire them at will, including
// after they were stopped.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) schedule(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		wasActive := !t.stopped
		t.stopped = true
		return wasActive
	}
}

func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	t.f()
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func newTestPopups() (*Popups, *fakeScheduler) {
	s := &fakeScheduler{}
	return NewPopupsWithScheduler(zerolog.Nop(), s.schedule), s
}

func TestShowOpensPopup(t *testing.T) {
	p, sched := newTestPopups()

	got := p.ShowWarning("כותרת", "הודעה", 0)
	if !got.Open || got.Category != CategoryWarning || got.Instance == "" {
		t.Fatalf("unexpected popup %+v", got)
	}
	if cur := p.Current(); cur.Instance != got.Instance || cur.Title != "כותרת" {
		t.Errorf("Current() = %+v", cur)
	}
	if sched.count() != 0 {
		t.Error("zero duration must not schedule a timer")
	}
}

func TestLastShowWins(t *testing.T) {
	p, sched := newTestPopups()

	first := p.ShowSuccess("first", "m1", 3*time.Second)
	second := p.ShowSuccess("second", "m2", time.Second)
	if first.Instance == second.Instance {
		t.Fatal("each Show needs a fresh instance")
	}
	if sched.count() != 2 {
		t.Fatalf("expected 2 timers, got %d", sched.count())
	}

	// The first timer fires late: it must not touch the second popup.
	sched.fire(0)
	cur := p.Current()
	if !cur.Open || cur.Title != "second" {
		t.Fatalf("stale timer closed the newer popup: %+v", cur)
	}

	sched.fire(1)
	if p.Current().Open {
		t.Error("second timer should close the popup")
	}
}

func TestHideIsIdempotent(t *testing.T) {
	p, sched := newTestPopups()

	var changes []Popup
	p.OnChange(func(pp Popup) { changes = append(changes, pp) })

	p.ShowInfo("t", "m", time.Second)
	p.Hide()
	p.Hide()
	sched.fire(0)

	if len(changes) != 2 {
		t.Fatalf("expected open and close notifications only, got %d", len(changes))
	}
	if !changes[0].Open || changes[1].Open {
		t.Errorf("unexpected change sequence %+v", changes)
	}
}

func TestConfirmRunsActionThenCloses(t *testing.T) {
	p, _ := newTestPopups()

	ran := 0
	dialog := p.Ask("אישור פעולה", "בטוח?", func() { ran++ })
	if !dialog.Confirm || dialog.ConfirmText != ConfirmText || dialog.CancelText != CancelText {
		t.Fatalf("unexpected dialog %+v", dialog)
	}

	if !p.Confirm() {
		t.Fatal("Confirm should report an open dialog")
	}
	if ran != 1 {
		t.Errorf("action ran %d times", ran)
	}
	if p.Current().Open {
		t.Error("dialog should be closed")
	}
	if p.Confirm() {
		t.Error("second Confirm must be a no-op")
	}
	if ran != 1 {
		t.Errorf("action ran %d times after repeated Confirm", ran)
	}
}

func TestConfirmActionMayOpenNextPopup(t *testing.T) {
	p, _ := newTestPopups()

	p.Ask("q", "m", func() {
		p.ShowSuccess("done", "ok", 0)
	})
	p.Confirm()

	cur := p.Current()
	if !cur.Open || cur.Title != "done" {
		t.Errorf("popup opened by the action was closed: %+v", cur)
	}
}

func TestCancel(t *testing.T) {
	p, _ := newTestPopups()

	ran := false
	p.Ask("q", "m", func() { ran = true })
	if !p.Cancel() {
		t.Fatal("Cancel should report an open dialog")
	}
	if ran || p.Current().Open {
		t.Error("Cancel must close without running the action")
	}

	p.ShowInfo("plain", "m", 0)
	if p.Cancel() || p.Confirm() {
		t.Error("Cancel and Confirm only apply to confirm dialogs")
	}
	if !p.Current().Open {
		t.Error("plain popup must stay open")
	}
}

func TestAutoCloseWithRealTimer(t *testing.T) {
	p := NewPopups(zerolog.Nop())

	closed := make(chan struct{})
	p.OnChange(func(pp Popup) {
		if !pp.Open {
			close(closed)
		}
	})
	p.ShowInfo("t", "m", 10*time.Millisecond)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("popup did not auto-close")
	}
}

func TestFormatPopup(t *testing.T) {
	if FormatPopup(Popup{}, false) != "" {
		t.Error("closed popup formats as empty")
	}

	got := FormatPopup(Popup{
		Config:      Config{Title: "T", Message: "a\nb", Category: CategoryDanger},
		Open:        true,
		Confirm:     true,
		ConfirmText: "yes",
		CancelText:  "no",
	}, false)
	want := "🚨 T\n  a\n  b\n  [y] yes   [n] no"
	if got != want {
		t.Errorf("FormatPopup = %q, want %q", got, want)
	}

	if Overlay(Popup{Open: true, Config: Config{Title: "x"}}, false, 30) == "" {
		t.Error("overlay of an open popup must not be empty")
	}
}
