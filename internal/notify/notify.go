// Package notify provides transient popups and the clipboard hand-off to the
// chat assistant.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/logging"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/render"
)

// DefaultChatURL is the assistant opened by a hand-off.
const DefaultChatURL = "https://chat.openai.com"

// Hand-off popups.
const (
	copiedTitle    = "הקונטקסט הועתק!"
	copiedMessage  = "הקונטקסט הועתק ללוח בהצלחה. עכשיו נפתח ChatGPT..."
	openingTitle   = "פתיחת ChatGPT"
	openingMessage = "נפתח ChatGPT בחלון חדש..."
	openText       = "פתח ChatGPT"

	copiedDuration  = 3 * time.Second
	openingDuration = 2 * time.Second
)

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Opener opens a URL in the user's browser.
type Opener interface {
	Open(url string) error
}

// SystemClipboard is the desktop clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return &apperrors.ClipboardError{Err: apperrors.ErrClipboardUnavailable}
	}
	if err := clipboard.WriteAll(text); err != nil {
		return &apperrors.ClipboardError{Err: err}
	}
	return nil
}

// BrowserOpener opens URLs with the platform's default handler.
type BrowserOpener struct{}

// Open implements Opener.
func (BrowserOpener) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	_, err := startDetached(cmd)
	return err
}

// startDetached starts cmd and reaps it in the background. The returned
// channel receives the exit status once the process is gone.
func startDetached(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	return done, nil
}

// HandoffResult reports what a hand-off managed to do.
type HandoffResult struct {
	Copied bool
	Opened bool
}

// Assistant hands a recommendation over to the chat assistant.
type Assistant struct {
	Popups    *Popups
	Clipboard Clipboard
	Opener    Opener
	ChatURL   string
	// OpenDelay separates the "copied" popup from the browser opening.
	OpenDelay time.Duration
	Logger    zerolog.Logger
}

// NewAssistant creates an assistant using the system clipboard and browser.
func NewAssistant(popups *Popups, chatURL string, logger zerolog.Logger) *Assistant {
	if chatURL == "" {
		chatURL = DefaultChatURL
	}
	return &Assistant{
		Popups:    popups,
		Clipboard: SystemClipboard{},
		Opener:    BrowserOpener{},
		ChatURL:   chatURL,
		OpenDelay: 500 * time.Millisecond,
		Logger:    logging.WithComponent(logger, "assistant"),
	}
}

// Ask shows the confirm dialog for rec. Confirming runs Handoff in a new
// goroutine; done, when non-nil, receives its result.
func (a *Assistant) Ask(ctx context.Context, rec models.Recommendation, done func(HandoffResult)) Popup {
	return a.Popups.AskWith(openingTitle, render.AskPrompt(rec), openText, CancelText, func() {
		go func() {
			res := a.Handoff(ctx, rec)
			if done != nil {
				done(res)
			}
		}()
	})
}

// Handoff copies the recommendation context to the clipboard and opens the
// assistant. A clipboard failure opens the assistant directly with a
// different popup. No failure is surfaced to the caller.
func (a *Assistant) Handoff(ctx context.Context, rec models.Recommendation) HandoffResult {
	logger := a.Logger.With().Str("symbol", rec.Symbol).Logger()
	var res HandoffResult

	if err := a.Clipboard.WriteAll(render.RecommendationContext(rec)); err != nil {
		logger.Warn().Err(err).Msg("Clipboard write failed, opening assistant directly")
		a.Popups.ShowSuccess(openingTitle, openingMessage, openingDuration)
		res.Opened = a.open(logger)
		return res
	}

	res.Copied = true
	a.Popups.ShowSuccess(copiedTitle, copiedMessage, copiedDuration)

	if a.OpenDelay > 0 {
		select {
		case <-ctx.Done():
			return res
		case <-time.After(a.OpenDelay):
		}
	}
	res.Opened = a.open(logger)
	return res
}

func (a *Assistant) open(logger zerolog.Logger) bool {
	if err := a.Opener.Open(a.ChatURL); err != nil {
		logger.Warn().Err(err).Str("url", a.ChatURL).Msg("Could not open assistant")
		return false
	}
	return true
}
