// Package keyboard reads single keypresses from a terminal in raw mode.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/muesli/cancelreader"
)

type Key int

const (
	KeyNone Key = iota
	// KeyScheduler opens the booking site.
	KeyScheduler
	// KeyIgnore dismisses the slots currently on screen.
	KeyIgnore
	// KeyQuit is Ctrl+C.
	KeyQuit
)

func (k Key) String() string {
	switch k {
	case KeyScheduler:
		return "s"
	case KeyIgnore:
		return "i"
	case KeyQuit:
		return "ctrl+c"
	default:
		return "none"
	}
}

const ctrlC = 0x03

// Decode maps one input byte to a Key. Anything unrecognized is KeyNone.
func Decode(b byte) Key {
	switch b {
	case 's':
		return KeyScheduler
	case 'i':
		return KeyIgnore
	case ctrlC:
		return KeyQuit
	default:
		return KeyNone
	}
}

// Listener puts a terminal in raw mode and delivers decoded keys.
type Listener struct {
	in     *os.File
	state  *term.State
	reader cancelreader.CancelReader
	logger *slog.Logger
}

// Start switches in to raw mode. Callers must Close the listener to restore
// the terminal.
func Start(in *os.File, logger *slog.Logger) (*Listener, error) {
	if !term.IsTerminal(in.Fd()) {
		return nil, errors.New("stdin is not a terminal")
	}
	state, err := term.MakeRaw(in.Fd())
	if err != nil {
		return nil, fmt.Errorf("make raw: %w", err)
	}
	reader, err := cancelreader.NewReader(in)
	if err != nil {
		_ = term.Restore(in.Fd(), state)
		return nil, fmt.Errorf("cancel reader: %w", err)
	}
	return &Listener{in: in, state: state, reader: reader, logger: logger}, nil
}

// Keys streams decoded keys until ctx is done or the reader fails. The
// returned channel is closed when reading stops.
func (l *Listener) Keys(ctx context.Context) <-chan Key {
	return readKeys(ctx, l.reader, l.logger)
}

// Close stops reading and restores the terminal state.
func (l *Listener) Close() error {
	l.reader.Cancel()
	_ = l.reader.Close()
	if err := term.Restore(l.in.Fd(), l.state); err != nil {
		return fmt.Errorf("restore terminal: %w", err)
	}
	return nil
}

// Width reports the terminal width, 0 when unknown.
func Width(f *os.File) int {
	w, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return w
}

func readKeys(ctx context.Context, r io.Reader, logger *slog.Logger) <-chan Key {
	keys := make(chan Key)
	go func() {
		defer close(keys)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				k := Decode(b)
				if k == KeyNone {
					continue
				}
				select {
				case keys <- k:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, cancelreader.ErrCanceled) && !errors.Is(err, io.EOF) {
					logger.Warn("keyboard read failed", "err", err)
				}
				return
			}
		}
	}()
	return keys
}
