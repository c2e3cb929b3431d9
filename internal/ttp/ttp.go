// Package ttp talks to the Trusted Traveler Programs scheduler API.
package ttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Slot is one open appointment as returned by the scheduler.
type Slot struct {
	StartTimestamp string `json:"startTimestamp"`
	// Start is the parsed StartTimestamp, zero when it could not be parsed.
	Start time.Time `json:"-"`
}

type availability struct {
	AvailableSlots []Slot `json:"availableSlots"`
}

type Client struct {
	url    string
	http   *http.Client
	loc    *time.Location
	logger *slog.Logger
}

// NewClient returns a client for the fully qualified availability URL.
// Timestamps without a zone are read in loc.
func NewClient(url string, loc *time.Location, logger *slog.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		url:    url,
		http:   http.DefaultClient,
		loc:    loc,
		logger: logger,
	}
}

// AvailableSlots fetches the slot list. An absent availableSlots field
// yields an empty slice.
func (c *Client) AvailableSlots(ctx context.Context) ([]Slot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("GET", "url", c.url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return c.decode(body)
}

func (c *Client) decode(body []byte) ([]Slot, error) {
	var a availability
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("parse slots: %w", err)
	}

	slots := a.AvailableSlots
	for i := range slots {
		t, err := ParseTimestamp(slots[i].StartTimestamp, c.loc)
		if err != nil {
			c.logger.Warn("unparseable slot timestamp", "value", slots[i].StartTimestamp, "err", err)
			continue
		}
		slots[i].Start = t
	}
	if slots == nil {
		slots = []Slot{}
	}
	return slots, nil
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 timestamp. The scheduler usually sends
// local wall-clock times without an offset; those are placed in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
