package waktusolat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"muezzin_reminder_bot/pkg/errors"
)

const fullTimetablePayload = `{
	"data": [{
		"waktu_solat": [
			{"name": "Imsak", "time": "05:35"},
			{"name": "Subuh", "time": "05:45"},
			{"name": "Syuruk", "time": "07:05"},
			{"name": "Zohor", "time": "13:15"},
			{"name": "Asar", "time": "16:00"},
			{"name": "Maghrib", "time": "19:20"},
			{"name": "Isyak", "time": "20:30"}
		]
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestFetchTimetable_DropsImsakAndSyuruk(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("zon")
		w.Write([]byte(fullTimetablePayload))
	})

	tt, err := client.FetchTimetable(context.Background(), "gombak")
	if err != nil {
		t.Fatalf("FetchTimetable failed: %v", err)
	}

	if gotPath != "/prayer_times.json" || gotQuery != "gombak" {
		t.Errorf("unexpected request: path=%q zon=%q", gotPath, gotQuery)
	}

	want := []struct{ name, time string }{
		{"Fajr", "05:45"},
		{"Dhuhr", "13:15"},
		{"Asr", "16:00"},
		{"Maghrib", "19:20"},
		{"Isha", "20:30"},
	}
	for i, w := range want {
		if tt[i].Name != w.name || tt[i].Time != w.time {
			t.Errorf("entry %d: got %s %s, want %s %s", i, tt[i].Name, tt[i].Time, w.name, w.time)
		}
	}
}

func TestFetchTimetable_EmptyPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})

	_, err := client.FetchTimetable(context.Background(), "gombak")
	if err == nil {
		t.Fatal("expected an error for an empty payload")
	}

	botErr, ok := errors.GetBotError(err)
	if !ok || botErr.Code != errors.ErrEmptyTimetable.Code {
		t.Errorf("expected ErrEmptyTimetable, got %v", err)
	}
}

func TestFetchTimetable_TooFewEntries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [{
				"waktu_solat": [
					{"name": "Imsak", "time": "05:35"},
					{"name": "Subuh", "time": "05:45"},
					{"name": "Syuruk", "time": "07:05"},
					{"name": "Zohor", "time": "13:15"}
				]
			}]
		}`))
	})

	if _, err := client.FetchTimetable(context.Background(), "gombak"); err == nil {
		t.Fatal("expected an error for a short payload")
	}
}

func TestFetchTimetable_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.FetchTimetable(context.Background(), "gombak"); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestFetchZones(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/zones.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"data": {"zon": ["gombak", "kuala-lumpur", "petaling"]}}`))
	})

	zones, err := client.FetchZones(context.Background())
	if err != nil {
		t.Fatalf("FetchZones failed: %v", err)
	}

	if len(zones) != 3 || zones[0] != "gombak" {
		t.Errorf("unexpected zones: %v", zones)
	}
}

func TestFetchZones_EmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"zon": []}}`))
	})

	_, err := client.FetchZones(context.Background())
	if err == nil {
		t.Fatal("expected an error for an empty zone list")
	}
	botErr, ok := errors.GetBotError(err)
	if !ok || botErr.Code != errors.ErrZoneListUnavailable.Code {
		t.Errorf("expected ErrZoneListUnavailable, got %v", err)
	}
}
