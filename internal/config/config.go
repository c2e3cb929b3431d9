package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL     = "https://ttp.cbp.dhs.gov/schedulerapi/slot-availability"
	DefaultBookingURL = "https://ttp.cbp.dhs.gov/"
	DefaultLocationID = 9200
	DefaultSoundFile  = "call-to-attention-123107.mp3"

	// CutoffLayout is the layout of the cutoff key. Values without a zone
	// are read in local time.
	CutoffLayout  = "2006-01-02T15:04"
	defaultCutoff = "2027-01-01T00:00"
)

const (
	SoundBackendCommand = "command"
	SoundBackendBeep    = "beep"
)

type Config struct {
	APIURL        string        `yaml:"api_url"`
	BookingURL    string        `yaml:"booking_url"`
	LocationID    int           `yaml:"location_id"`
	PollInterval  time.Duration `yaml:"-"`
	RawPoll       string        `yaml:"poll_interval"`
	AlertInterval time.Duration `yaml:"-"`
	RawAlert      string        `yaml:"alert_interval"`
	Cutoff        time.Time     `yaml:"-"`
	RawCutoff     string        `yaml:"cutoff"`
	DesktopNotify *bool         `yaml:"desktop_notify,omitempty"`
	LogFile       string        `yaml:"log_file"`
	Sound         SoundConfig   `yaml:"sound"`
	Log           LogConfig     `yaml:"log"`
}

type SoundConfig struct {
	File    string `yaml:"file"`
	Backend string `yaml:"backend"`
	// Command overrides the detected audio player. The sound file is
	// appended as the last argument.
	Command []string `yaml:"command"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	var cfg Config
	if err := cfg.setDefaults(); err != nil {
		// defaults are constants; failing here is a programming error
		panic(err)
	}
	return &cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// SlotsURL is the availability endpoint including the location query.
func (c *Config) SlotsURL() string {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return c.APIURL
	}
	q := u.Query()
	q.Set("locationId", fmt.Sprintf("%d", c.LocationID))
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Config) NotifyDesktop() bool {
	return c.DesktopNotify == nil || *c.DesktopNotify
}

func (c *Config) setDefaults() error {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.BookingURL == "" {
		c.BookingURL = DefaultBookingURL
	}
	if c.LocationID == 0 {
		c.LocationID = DefaultLocationID
	}

	if c.RawPoll == "" {
		c.RawPoll = "5m"
	}
	d, err := time.ParseDuration(c.RawPoll)
	if err != nil {
		return fmt.Errorf("parse poll_interval %q: %w", c.RawPoll, err)
	}
	c.PollInterval = d

	if c.RawAlert == "" {
		c.RawAlert = "10s"
	}
	d, err = time.ParseDuration(c.RawAlert)
	if err != nil {
		return fmt.Errorf("parse alert_interval %q: %w", c.RawAlert, err)
	}
	c.AlertInterval = d

	if c.RawCutoff == "" {
		c.RawCutoff = defaultCutoff
	}
	cutoff, err := ParseCutoff(c.RawCutoff)
	if err != nil {
		return fmt.Errorf("parse cutoff %q: %w", c.RawCutoff, err)
	}
	c.Cutoff = cutoff

	if c.Sound.File == "" {
		c.Sound.File = DefaultSoundFile
	}
	if c.Sound.Backend == "" {
		c.Sound.Backend = SoundBackendCommand
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(os.TempDir(), "appt-checker", "appt-checker.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	return nil
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.RawPoll)
	}
	if c.AlertInterval <= 0 {
		return fmt.Errorf("alert_interval must be positive, got %s", c.RawAlert)
	}
	if c.LocationID < 0 {
		return fmt.Errorf("location_id must be positive, got %d", c.LocationID)
	}
	if _, err := url.ParseRequestURI(c.APIURL); err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if _, err := url.ParseRequestURI(c.BookingURL); err != nil {
		return fmt.Errorf("invalid booking_url %q: %w", c.BookingURL, err)
	}
	switch c.Sound.Backend {
	case SoundBackendCommand, SoundBackendBeep:
	default:
		return fmt.Errorf("invalid sound.backend %q (command|beep)", c.Sound.Backend)
	}
	return nil
}

// ParseCutoff accepts CutoffLayout in local time or a full RFC 3339 value.
func ParseCutoff(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(CutoffLayout, s, time.Local)
}
