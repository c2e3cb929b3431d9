package screen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eraseRow = "\x1b[A" + "\x1b[2K"

func TestPrintlnCountsLines(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	require.NoError(t, s.Println("one"))
	require.NoError(t, s.Println("two"))

	assert.Equal(t, "one\ntwo\n", buf.String())
	assert.Equal(t, 2, s.LinesToClear)
}

func TestClearErasesExactlyPreviousRows(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	for _, l := range []string{"a", "b", "c"} {
		require.NoError(t, s.Println(l))
	}
	buf.Reset()

	require.NoError(t, s.Clear())
	assert.Equal(t, strings.Repeat(ansi.CursorUp(1)+ansi.EraseEntireLine, 3), buf.String())
	assert.Equal(t, 0, s.LinesToClear)

	buf.Reset()
	require.NoError(t, s.Clear())
	assert.Empty(t, buf.String())
}

func TestEraseSequence(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)
	s.LinesToClear = 1

	require.NoError(t, s.Clear())
	assert.Equal(t, eraseRow, buf.String())
}

func TestColors(t *testing.T) {
	var buf bytes.Buffer

	plain := New(&buf)
	assert.Equal(t, "hi", plain.Green("hi"))

	colored := New(&buf, WithColor(true))
	assert.Equal(t, "\x1b[32mhi\x1b[0m", colored.Green("hi"))
	assert.Equal(t, "\x1b[36mhi\x1b[0m", colored.Cyan("hi"))
	assert.Equal(t, "\x1b[31mhi\x1b[0m", colored.Red("hi"))
}

func TestRawModeNewlines(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, WithRawMode(true))

	require.NoError(t, s.Println("x"))
	assert.Equal(t, "x\r\n", buf.String())
}

func TestWrappedLinesCountRows(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, WithColor(true), WithWidth(func() int { return 10 }))

	require.NoError(t, s.Println(s.Cyan(strings.Repeat("x", 10))))
	assert.Equal(t, 1, s.LinesToClear)

	require.NoError(t, s.Println(strings.Repeat("y", 21)))
	assert.Equal(t, 4, s.LinesToClear)
}
