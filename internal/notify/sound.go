package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gen2brain/beeep"
)

// Player plays the alert sound once.
type Player interface {
	Play(ctx context.Context) error
}

// CommandPlayer plays a sound file through the platform's audio command.
type CommandPlayer struct {
	file    string
	command []string
	logger  *slog.Logger

	lookPath func(string) (string, error)
}

var ffplay = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}

// linuxPlayers are tried in order; the first one on PATH wins. paplay only
// decodes mp3 when libsndfile was built with it, so it comes last.
var linuxPlayers = [][]string{
	{"mpg123", "-q"},
	ffplay,
	{"paplay"},
}

// mediaPlayerScript plays an mp3 through WPF's MediaPlayer and waits for it
// to finish. %s is a single-quoted PowerShell literal.
const mediaPlayerScript = `Add-Type -AssemblyName PresentationCore; ` +
	`$p = New-Object System.Windows.Media.MediaPlayer; ` +
	`$p.Open([uri]%s); Start-Sleep -Milliseconds 500; $p.Play(); ` +
	`$d = $p.NaturalDuration; if ($d.HasTimeSpan) { Start-Sleep -Milliseconds $d.TimeSpan.TotalMilliseconds } else { Start-Sleep -Seconds 3 }; ` +
	`$p.Close()`

// NewCommandPlayer returns a player for file. A non-empty command replaces
// the detected audio player; file is appended to it.
func NewCommandPlayer(file string, command []string, logger *slog.Logger) *CommandPlayer {
	return &CommandPlayer{
		file:     file,
		command:  command,
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

func (p *CommandPlayer) Play(ctx context.Context) error {
	argv, err := p.argv(runtime.GOOS)
	if err != nil {
		return err
	}
	p.logger.Debug("exec", "cmd", strings.Join(argv, " "))
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w\n%s", argv[0], err, string(out))
	}
	return nil
}

func (p *CommandPlayer) argv(goos string) ([]string, error) {
	if len(p.command) > 0 {
		return append(append([]string{}, p.command...), p.file), nil
	}

	switch goos {
	case "darwin":
		return []string{"afplay", p.file}, nil
	case "windows":
		if _, err := p.lookPath(ffplay[0]); err == nil {
			return append(append([]string{}, ffplay...), p.file), nil
		}
		abs, err := filepath.Abs(p.file)
		if err != nil {
			abs = p.file
		}
		script := fmt.Sprintf(mediaPlayerScript, psQuote(abs))
		return []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", script}, nil
	}

	for _, candidate := range linuxPlayers {
		if _, err := p.lookPath(candidate[0]); err == nil {
			return append(append([]string{}, candidate...), p.file), nil
		}
	}
	return nil, errors.New("no audio player found (tried mpg123, ffplay, paplay)")
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ResolveSoundFile finds a relative sound file in the working directory or,
// failing that, next to the executable. Absolute names and names found in
// neither place come back unchanged.
func ResolveSoundFile(name string) string {
	cwd, _ := os.Getwd()
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		exeDir = filepath.Dir(exe)
	}
	return resolveSoundFile(name, cwd, exeDir)
}

func resolveSoundFile(name, cwd, exeDir string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	for _, dir := range []string{cwd, exeDir} {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return name
}

// BeepPlayer sounds a short tone through the system speaker.
type BeepPlayer struct{}

func (BeepPlayer) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		return fmt.Errorf("beep: %w", err)
	}
	return nil
}
