package keyboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pmulholland42/global-entry-appt-checker/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		in   byte
		want Key
	}{
		{'s', KeyScheduler},
		{'i', KeyIgnore},
		{0x03, KeyQuit},
		{'S', KeyNone},
		{'q', KeyNone},
		{'\r', KeyNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decode(tt.in), "byte %q", tt.in)
	}
}

func TestReadKeysSkipsUnknown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := readKeys(ctx, strings.NewReader("xsq\x1b[Ai\x03"), logging.Discard())

	var got []Key
	for k := range keys {
		got = append(got, k)
	}
	assert.Equal(t, []Key{KeyScheduler, KeyIgnore, KeyQuit}, got)
}

func TestReadKeysStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	keys := readKeys(ctx, strings.NewReader("sss"), logging.Discard())

	assert.Equal(t, KeyScheduler, <-keys)
	cancel()

	select {
	case <-drain(keys):
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after cancel")
	}
}

func drain(keys <-chan Key) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range keys {
		}
		close(done)
	}()
	return done
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "s", KeyScheduler.String())
	assert.Equal(t, "i", KeyIgnore.String())
	assert.Equal(t, "ctrl+c", KeyQuit.String())
	assert.Equal(t, "none", KeyNone.String())
}
