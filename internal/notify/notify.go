// Package notify holds the side effects of an alert: sound, desktop
// notifications and opening the booking site.
package notify

import (
	"fmt"
	"io"

	"github.com/gen2brain/beeep"
	"github.com/pkg/browser"
)

func init() {
	beeep.AppName = "appt-checker"
	// The browser launcher echoes the helper's output to our stdout,
	// which is the slot display.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// Opener opens a URL with the user's default handler.
type Opener interface {
	Open(url string) error
}

type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// Desktop posts a desktop notification.
type Desktop interface {
	Notify(title, message string) error
}

type BeeepDesktop struct{}

func (BeeepDesktop) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// NoDesktop drops notifications.
type NoDesktop struct{}

func (NoDesktop) Notify(string, string) error { return nil }
