package marketstack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketpulse/internal/model"
)

func TestBars_ParsesAndFilters(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"access_key": r.URL.Query().Get("access_key"),
			"symbols":    r.URL.Query().Get("symbols"),
			"interval":   r.URL.Query().Get("interval"),
			"sort":       r.URL.Query().Get("sort"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"date":"2026-03-02T15:00:00+0000","open":100,"high":101,"low":99,"close":100.5,"volume":1000},
			{"date":"2026-03-02T16:00:00+0000","open":null,"high":101,"low":99,"close":100,"volume":1000},
			{"date":"not-a-date","open":100,"high":101,"low":99,"close":100,"volume":1000},
			{"date":"2026-03-02T17:00:00+0000","open":100,"high":99,"low":101,"close":102}
		]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"})
	bars, err := c.Bars(context.Background(), "AAPL", model.TF1Hour, 100)
	if err != nil {
		t.Fatalf("bars: %v", err)
	}

	if gotQuery["access_key"] != "k" || gotQuery["symbols"] != "AAPL" ||
		gotQuery["interval"] != "1hour" || gotQuery["sort"] != "ASC" {
		t.Errorf("query = %v", gotQuery)
	}

	// Row 2 lacks open, row 3 has a bad date; both dropped.
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}

	b := bars[0]
	want := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	if !b.TS.Equal(want) {
		t.Errorf("ts = %v, want %v", b.TS, want)
	}
	if b.Close != 100.5 || b.Volume != 1000 {
		t.Errorf("bar = %+v", b)
	}

	// Row 4: missing volume defaults to 0; inverted high/low normalized.
	nb := bars[1]
	if nb.Volume != 0 {
		t.Errorf("missing volume = %v, want 0", nb.Volume)
	}
	if nb.High < 102 || nb.Low > 100 {
		t.Errorf("not normalized: high=%v low=%v", nb.High, nb.Low)
	}
}

func TestBars_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.Bars(context.Background(), "AAPL", model.TF1Hour, 10); err == nil {
		t.Fatal("expected error for HTTP 429")
	}
}

func TestBars_SortsAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"date":"2026-03-02T16:00:00+0000","open":1,"high":2,"low":0.5,"close":1.5,"volume":1},
			{"date":"2026-03-02T15:00:00+0000","open":1,"high":2,"low":0.5,"close":1.5,"volume":1}
		]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"})
	bars, err := c.Bars(context.Background(), "AAPL", model.TF1Hour, 10)
	if err != nil {
		t.Fatalf("bars: %v", err)
	}
	if len(bars) != 2 || !bars[0].TS.Before(bars[1].TS) {
		t.Errorf("not ascending: %v", bars)
	}
}

func TestParseTS_Variants(t *testing.T) {
	cases := []string{
		"2026-03-02T15:00:00+0000",
		"2026-03-02T15:00:00Z",
		"2026-03-02 15:00:00",
	}
	for _, s := range cases {
		if _, err := parseTS(s); err != nil {
			t.Errorf("parseTS(%q): %v", s, err)
		}
	}
	if _, err := parseTS("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
