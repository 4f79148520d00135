package bcch

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/etnz/valuation"
)

const getSeriesResponse = `{
  "Codigo": 0,
  "Descripcion": "Success",
  "Series": {
    "descripEsp": "Indice de Precios al Consumidor",
    "descripIng": "Consumer Price Index",
    "seriesId": "F074.IPC.VAR.Z.Z.C.M",
    "Obs": [
      {"indexDateString": "01-01-2024", "value": "0.7", "statusCode": "OK"},
      {"indexDateString": "01-02-2024", "value": "0.6", "statusCode": "OK"},
      {"indexDateString": "01-03-2024", "value": "NeuN", "statusCode": "ND"}
    ]
  },
  "SeriesInfos": []
}`

func TestSeries(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		if query["pass"] != "pwd" {
			w.Write([]byte(`{"Codigo": -5, "Descripcion": "Invalid username or password", "Series": {"Obs": null}}`))
			return
		}
		w.Write([]byte(getSeriesResponse))
	}))
	defer srv.Close()

	c := NewClient("user", "pwd", WithBaseURL(srv.URL))
	s, err := c.Series(context.Background(), "F074.IPC.VAR.Z.Z.C.M", valuation.NewDate(2024, 1, 1), valuation.Date{})
	if err != nil {
		t.Fatalf("Series() unexpected error = %v", err)
	}
	if query["function"] != "GetSeries" || query["firstdate"] != "2024-01-01" || query["user"] != "user" {
		t.Errorf("Series() query = %v", query)
	}
	if _, ok := query["lastdate"]; ok {
		t.Errorf("Series() sent a lastdate for an open range")
	}
	if s.Name != "Consumer Price Index" || s.Len() != 3 {
		t.Errorf("Series() = %s with %d points, want Consumer Price Index with 3", s.Name, s.Len())
	}
	if v, ok := s.At(valuation.NewDate(2024, 2, 1)); !ok || v != 0.6 {
		t.Errorf("Series() at 2024-02-01 = %v, want 0.6", v)
	}
	if _, v := s.Latest(); !math.IsNaN(v) {
		t.Errorf("Series() unavailable observation = %v, want NaN", v)
	}

	_, err = NewClient("user", "wrong", WithBaseURL(srv.URL)).Series(context.Background(), "F074.IPC.VAR.Z.Z.C.M", valuation.Date{}, valuation.Date{})
	var fe *valuation.FetchError
	if !errors.As(err, &fe) || fe.Source != "bcch" {
		t.Errorf("Series() with bad credentials error = %v, want a bcch FetchError", err)
	}
}

func TestSeriesCache(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("pass") != "pwd" {
			w.Write([]byte(`{"Codigo": -5, "Descripcion": "Invalid username or password", "Series": {"Obs": null}}`))
			return
		}
		w.Write([]byte(getSeriesResponse))
	}))
	defer srv.Close()

	bad := NewClient("user", "wrong", WithBaseURL(srv.URL), WithCache(valuation.Daily))
	for i := 0; i < 2; i++ {
		if _, err := bad.Series(context.Background(), "F074.IPC.VAR.Z.Z.C.M", valuation.Date{}, valuation.Date{}); err == nil {
			t.Errorf("Series() #%d with bad credentials succeeded", i)
		}
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2 (error answers are not cached)", calls)
	}

	good := NewClient("user", "pwd", WithBaseURL(srv.URL), WithCache(valuation.Daily))
	for i := 0; i < 2; i++ {
		if _, err := good.Series(context.Background(), "F074.IPC.VAR.Z.Z.C.M", valuation.Date{}, valuation.Date{}); err != nil {
			t.Fatalf("Series() #%d unexpected error = %v", i, err)
		}
	}
	if calls != 3 {
		t.Errorf("server called %d times, want 3 (the second success comes from the cache)", calls)
	}
}

func TestSeriesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("u", "p", WithBaseURL(srv.URL)).Series(context.Background(), "X", valuation.Date{}, valuation.Date{})
	if !valuation.Skippable(err) {
		t.Errorf("Series() error = %v, want a skippable fetch error", err)
	}
}

func TestLiveSeries(t *testing.T) {
	user, pass := os.Getenv("BCCH_USER"), os.Getenv("BCCH_PWD")
	if testing.Short() || user == "" {
		t.Skip("requires BCCH_USER and BCCH_PWD")
	}
	s, err := NewClient(user, pass).Series(context.Background(), "F019.IPC.V12.10.M", valuation.Today().AddMonth(-24), valuation.Today())
	if err != nil {
		t.Fatalf("Series() unexpected error = %v", err)
	}
	if s.Len() == 0 {
		t.Error("Series() no observations returned")
	}
}
