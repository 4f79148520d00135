package fred

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/etnz/valuation"
)

func TestSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/series/observations" || q.Get("file_type") != "json" {
			http.NotFound(w, r)
			return
		}
		if q.Get("api_key") != "key" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error_code":400,"error_message":"Bad Request.  The value for variable api_key is not registered."}`))
			return
		}
		if q.Get("observation_start") != "2024-01-01" {
			t.Errorf("observation_start = %q, want 2024-01-01", q.Get("observation_start"))
		}
		w.Write([]byte(`{"observations":[
			{"realtime_start":"2024-10-01","realtime_end":"2024-10-01","date":"2024-01-01","value":"2.41"},
			{"realtime_start":"2024-10-01","realtime_end":"2024-10-01","date":"2024-02-01","value":"."},
			{"realtime_start":"2024-10-01","realtime_end":"2024-10-01","date":"2024-03-01","value":"2.35"}]}`))
	}))
	defer srv.Close()

	s, err := NewClient("key", WithBaseURL(srv.URL)).Series(context.Background(), "EXPINF1YR", valuation.NewDate(2024, 1, 1), valuation.Date{})
	if err != nil {
		t.Fatalf("Series() unexpected error = %v", err)
	}
	got := s.Floats()
	if len(got) != 3 || got[0] != 2.41 || !math.IsNaN(got[1]) || got[2] != 2.35 {
		t.Errorf("Series() = %v, want [2.41 NaN 2.35]", got)
	}
	if day, v, ok := s.LatestValid(); !ok || v != 2.35 || day != valuation.NewDate(2024, 3, 1) {
		t.Errorf("Series().LatestValid() = %v %v", day, v)
	}

	_, err = NewClient("nope", WithBaseURL(srv.URL)).Series(context.Background(), "EXPINF1YR", valuation.Date{}, valuation.Date{})
	if !valuation.Skippable(err) {
		t.Errorf("Series() with a bad key error = %v, want a fetch error", err)
	}
}

func TestLiveSeries(t *testing.T) {
	key := os.Getenv("API_FRED")
	if testing.Short() || key == "" {
		t.Skip("requires API_FRED")
	}
	s, err := NewClient(key).Series(context.Background(), "EXPINF1YR", valuation.Today().AddMonth(-12), valuation.Today())
	if err != nil {
		t.Fatalf("Series() unexpected error = %v", err)
	}
	if s.Len() == 0 {
		t.Error("Series() no observations returned")
	}
}
