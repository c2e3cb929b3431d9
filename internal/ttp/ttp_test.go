package ttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pmulholland42/global-entry-appt-checker/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9200", r.URL.Query().Get("locationId"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"?locationId=9200", time.UTC, logging.Discard())
}

func TestAvailableSlots(t *testing.T) {
	c := serve(t, http.StatusOK, `{"availableSlots":[
		{"startTimestamp":"2024-04-10T10:00:00Z"},
		{"startTimestamp":"2024-04-11T14:15"},
		{"startTimestamp":"garbage"}
	]}`)

	slots, err := c.AvailableSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, time.Date(2024, 4, 10, 10, 0, 0, 0, time.UTC), slots[0].Start)
	assert.Equal(t, time.Date(2024, 4, 11, 14, 15, 0, 0, time.UTC), slots[1].Start)
	assert.True(t, slots[2].Start.IsZero())
	assert.Equal(t, "garbage", slots[2].StartTimestamp)
}

func TestAvailableSlotsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"availableSlots":[]}`, `{"availableSlots":null}`} {
		t.Run(body, func(t *testing.T) {
			slots, err := serve(t, http.StatusOK, body).AvailableSlots(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, slots)
			assert.Empty(t, slots)
		})
	}
}

func TestAvailableSlotsErrors(t *testing.T) {
	_, err := serve(t, http.StatusOK, `{"availableSlots":`).AvailableSlots(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse slots")

	_, err = serve(t, http.StatusServiceUnavailable, `down`).AvailableSlots(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAvailableSlotsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.UTC, logging.Discard()).AvailableSlots(context.Background())
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got, err := ParseTimestamp("2024-04-10T10:00", ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 10, 10, 0, 0, 0, ny), got)

	got, err = ParseTimestamp("2024-04-10T10:00:00-04:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 10, 14, 0, 0, 0, time.UTC), got.UTC())

	_, err = ParseTimestamp("", time.UTC)
	assert.Error(t, err)
}
