package waktusolat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"muezzin_reminder_bot/internal/prayer"
	"muezzin_reminder_bot/pkg/errors"
	"muezzin_reminder_bot/pkg/metrics"
)

// Client talks to the waktu-solat prayer time API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// zonesResponse mirrors GET /zones.json
type zonesResponse struct {
	Data struct {
		Zon []string `json:"zon"`
	} `json:"data"`
}

// timetableResponse mirrors GET /prayer_times.json?zon=<zone>
type timetableResponse struct {
	Data []struct {
		WaktuSolat []rawEntry `json:"waktu_solat"`
	} `json:"data"`
}

type rawEntry struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// FetchZones returns the list of valid zone identifiers.
func (c *Client) FetchZones(ctx context.Context) ([]string, error) {
	var resp zonesResponse
	if err := c.getJSON(ctx, c.baseURL+"/zones.json", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch zones: %w", err)
	}

	if len(resp.Data.Zon) == 0 {
		return nil, errors.ErrZoneListUnavailable
	}

	return resp.Data.Zon, nil
}

// FetchTimetable returns today's five prayer times for a zone.
//
// The raw payload carries seven entries. The imsak marker at index 0 is
// dropped first, then the syuruk marker which sits at index 1 of the
// remainder, leaving exactly the five daily prayers.
func (c *Client) FetchTimetable(ctx context.Context, zone string) (prayer.Timetable, error) {
	var tt prayer.Timetable

	endpoint := fmt.Sprintf("%s/prayer_times.json?zon=%s", c.baseURL, url.QueryEscape(zone))

	var resp timetableResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		metrics.RecordTimetableFetch("error")
		return tt, fmt.Errorf("failed to fetch prayer times for %q: %w", zone, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].WaktuSolat) == 0 {
		metrics.RecordTimetableFetch("empty")
		return tt, errors.ErrEmptyTimetable.WithContext(zone)
	}

	raw := resp.Data[0].WaktuSolat

	// Drop imsak, then syuruk.
	if len(raw) > 0 {
		raw = raw[1:]
	}
	if len(raw) > 1 {
		raw = append(raw[:1:1], raw[2:]...)
	}

	if len(raw) < prayer.Count {
		metrics.RecordTimetableFetch("malformed")
		return tt, fmt.Errorf("expected %d prayer entries for %q, got %d", prayer.Count, zone, len(raw))
	}

	for i := 0; i < prayer.Count; i++ {
		tt[i] = prayer.Entry{
			Name: prayer.Names[i],
			Time: raw[i].Time,
		}
	}

	metrics.RecordTimetableFetch("success")
	return tt, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	metrics.TimetableFetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
