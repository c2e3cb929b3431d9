// Package watcher runs the poll, alert and keypress cycle.
//
// All session state is owned by the goroutine running Watcher.Run. Scheduled
// jobs, fetches and the keyboard only talk to it through channels.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmulholland42/global-entry-appt-checker/internal/config"
	"github.com/pmulholland42/global-entry-appt-checker/internal/keyboard"
	"github.com/pmulholland42/global-entry-appt-checker/internal/notify"
	"github.com/pmulholland42/global-entry-appt-checker/internal/schedule"
	"github.com/pmulholland42/global-entry-appt-checker/internal/screen"
	"github.com/pmulholland42/global-entry-appt-checker/internal/slots"
	"github.com/pmulholland42/global-entry-appt-checker/internal/ttp"
)

type Fetcher interface {
	AvailableSlots(ctx context.Context) ([]ttp.Slot, error)
}

type Scheduler interface {
	Every(interval time.Duration, job func()) (schedule.Handle, error)
	Cancel(h schedule.Handle)
}

// Effects are the outside-world actions of an alert.
type Effects struct {
	Player  notify.Player
	Desktop notify.Desktop
	Opener  notify.Opener
}

// Session is the state carried between cycles.
type Session struct {
	// Ignored only grows. Slots in the same minute as an entry never alert.
	Ignored []time.Time
	// Current holds the times listed by the last alerting cycle.
	Current []time.Time
	// Alert is the repeating sound job, zero when none is armed.
	Alert schedule.Handle
}

// soundFailure is a playback error from the alert armed under handle alert.
type soundFailure struct {
	alert schedule.Handle
	err   error
}

type result struct {
	cycle string
	slots []ttp.Slot
	err   error
}

type Watcher struct {
	cfg     *config.Config
	fetcher Fetcher
	sched   Scheduler
	screen  *screen.Screen
	fx      Effects
	logger  *slog.Logger

	loc *time.Location
	now func() time.Time

	session Session
	// reported is the alert whose playback failure is already on screen.
	reported schedule.Handle

	ticks      chan struct{}
	results    chan result
	soundFails chan soundFailure
}

func New(cfg *config.Config, f Fetcher, sched Scheduler, scr *screen.Screen, fx Effects, logger *slog.Logger) *Watcher {
	if fx.Desktop == nil {
		fx.Desktop = notify.NoDesktop{}
	}
	return &Watcher{
		cfg:        cfg,
		fetcher:    f,
		sched:      sched,
		screen:     scr,
		fx:         fx,
		logger:     logger,
		loc:        time.Local,
		now:        time.Now,
		ticks:      make(chan struct{}, 1),
		results:    make(chan result),
		soundFails: make(chan soundFailure, 4),
	}
}

// Run polls once immediately and then on every poll interval until ctx is
// done or Ctrl+C arrives on keys. keys may be nil when there is no
// terminal to read from.
func (w *Watcher) Run(ctx context.Context, keys <-chan keyboard.Key) error {
	w.logger.Info("watcher started",
		"poll_interval", w.cfg.PollInterval,
		"alert_interval", w.cfg.AlertInterval,
		"cutoff", w.cfg.Cutoff)

	poll, err := w.sched.Every(w.cfg.PollInterval, w.requestPoll)
	if err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}
	defer w.sched.Cancel(poll)
	defer w.cancelAlert()

	w.startFetch(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down")
			return nil
		case <-w.ticks:
			w.startFetch(ctx)
		case r := <-w.results:
			w.handleResult(ctx, r)
		case f := <-w.soundFails:
			w.handleSoundFailure(f)
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if quit := w.HandleKey(k); quit {
				w.logger.Info("quit requested")
				return nil
			}
		}
	}
}

// requestPoll runs on the scheduler's goroutine. A tick that arrives while
// another is still queued is dropped.
func (w *Watcher) requestPoll() {
	select {
	case w.ticks <- struct{}{}:
	default:
	}
}

func (w *Watcher) startFetch(ctx context.Context) {
	cycle := uuid.NewString()
	w.logger.Debug("polling", "cycle", cycle)
	go func() {
		list, err := w.fetcher.AvailableSlots(ctx)
		select {
		case w.results <- result{cycle: cycle, slots: list, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (w *Watcher) handleResult(ctx context.Context, r result) {
	logger := w.logger.With("cycle", r.cycle)
	if r.err != nil {
		logger.Error("poll failed", "err", r.err)
		w.HandleError(r.err)
		return
	}
	logger.Info("polled", "slots", len(r.slots))
	w.HandleSlots(ctx, r.slots)
}

// beginCycle erases the previous output, then disarms the alert, then
// forgets the previously listed times. The order matters.
func (w *Watcher) beginCycle() {
	if err := w.screen.Clear(); err != nil {
		w.logger.Warn("clear screen failed", "err", err)
	}
	w.cancelAlert()
	w.session.Current = nil
}

// HandleSlots interprets one successful poll. The alert decision only looks
// at good slots, but the listing always shows every slot returned.
func (w *Watcher) HandleSlots(ctx context.Context, list []ttp.Slot) {
	w.beginCycle()

	if len(list) == 0 {
		w.println(fmt.Sprintf("No slots available as of %s", w.clock()))
		return
	}

	if !slots.AnyGood(list, w.session.Ignored, w.cfg.Cutoff) {
		w.logger.Info("no good slots", "available", len(list), "ignored", len(w.session.Ignored))
		w.println(fmt.Sprintf("No good slots available as of %s", w.clock()))
		return
	}

	w.armAlert(ctx, len(list))

	w.println(w.screen.Green(slots.CountLine(len(list))))
	for _, s := range list {
		w.println(w.screen.Cyan(slots.FormatSlot(s, w.loc)))
	}
	w.println("To claim an appointment slot, press s to open the scheduler on this computer")
	w.println(fmt.Sprintf("Or, go to %s on another computer", w.screen.Cyan(w.cfg.BookingURL)))
	w.println("Press i to ignore these slots and silence the alert until new ones show up")

	w.session.Current = slots.Times(list)
}

// HandleError reports a failed poll on a single line.
func (w *Watcher) HandleError(err error) {
	w.beginCycle()
	w.println(w.screen.Red(fmt.Sprintf(
		"[%s] Error: %s. Contact the developer if this error persists for more than 5 minutes",
		w.clock(), err.Error())))
}

// HandleKey applies one keypress and reports whether the watcher should stop.
func (w *Watcher) HandleKey(k keyboard.Key) bool {
	switch k {
	case keyboard.KeyScheduler:
		w.logger.Info("opening scheduler", "url", w.cfg.BookingURL)
		go func() {
			if err := w.fx.Opener.Open(w.cfg.BookingURL); err != nil {
				w.logger.Warn("open browser failed", "err", err)
			}
		}()
	case keyboard.KeyIgnore:
		w.session.Ignored = append(w.session.Ignored, w.session.Current...)
		w.cancelAlert()
		w.logger.Info("ignoring slots", "count", len(w.session.Current), "ignored_total", len(w.session.Ignored))
		w.println(fmt.Sprintf("Ignoring %d slot time(s); you will be alerted again when new slots appear", len(w.session.Current)))
	case keyboard.KeyQuit:
		return true
	}
	return false
}

func (w *Watcher) armAlert(ctx context.Context, n int) {
	var h schedule.Handle
	h, err := w.sched.Every(w.cfg.AlertInterval, func() { w.play(ctx, h) })
	if err != nil {
		w.logger.Error("schedule alert failed", "err", err)
	} else {
		w.session.Alert = h
	}
	go w.play(ctx, h)

	go func() {
		if err := w.fx.Desktop.Notify("Appointment slots available", slots.CountLine(n)); err != nil {
			w.logger.Warn("desktop notification failed", "err", err)
		}
	}()
}

func (w *Watcher) cancelAlert() {
	if w.session.Alert == 0 {
		return
	}
	w.sched.Cancel(w.session.Alert)
	w.session.Alert = 0
}

// play runs off the loop and touches no session state. Failures are handed
// to the loop; when it is busy they only reach the log file.
func (w *Watcher) play(ctx context.Context, alert schedule.Handle) {
	err := w.fx.Player.Play(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	w.logger.Warn("failed to play sound", "alert", int(alert), "err", err)
	select {
	case w.soundFails <- soundFailure{alert: alert, err: err}:
	default:
	}
}

// handleSoundFailure prints the first playback error of the armed alert.
// Repeats and failures from alerts already canceled stay in the log.
func (w *Watcher) handleSoundFailure(f soundFailure) {
	if f.alert == 0 || f.alert != w.session.Alert || f.alert == w.reported {
		return
	}
	w.reported = f.alert
	w.println(w.screen.Red(fmt.Sprintf("Failed to play sound: %s", oneLine(f.err.Error()))))
}

// oneLine keeps multi-line error output (player stderr) from breaking the
// screen's row count.
func oneLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func (w *Watcher) println(line string) {
	if err := w.screen.Println(line); err != nil {
		w.logger.Warn("write screen failed", "err", err)
	}
}

func (w *Watcher) clock() string {
	return w.now().In(w.loc).Format(slots.ClockLayout)
}
