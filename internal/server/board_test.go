package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daily-leaderboard/internal/api"
	"daily-leaderboard/internal/config"
	"daily-leaderboard/internal/countdown"
	"daily-leaderboard/internal/database"
	"daily-leaderboard/internal/domain"
	"daily-leaderboard/internal/repository"
	"daily-leaderboard/internal/service"
	"daily-leaderboard/internal/tzclock"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const winners = `{
	"days": [
		{"date": "2025-09-01", "rows": [{"name": "early_bird", "amount": 5}]},
		{"date": "2025-09-03", "last_updated": "2025-09-03T09:00:00Z", "rows": [
			{"name": "highroller99", "amount": 1500.25, "game": "Crash"},
			{"name": "luckyduck", "amount": 820},
			{"name": "abcdef", "amount": "90.10"}
		]}
	]
}`

type fixture struct {
	handler http.Handler
	latest  *countdown.LatestSink
	dataDir string
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "winners-2025-09.json"), []byte(winners), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		DataLocation: dataDir,
		PeriodKey:    "2025-09",
		Window:       domain.Window{Start: "2025-09-01", End: "2025-09-30"},
		Timezone:     "UTC",
		Location:     time.UTC,
		Currency:     domain.Currency{Symbol: "$", Code: "USD"},
		TopN:         2,
	}

	db, err := database.Open(filepath.Join(t.TempDir(), "archive.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fake := clockwork.NewFakeClockAt(now)
	log := zerolog.Nop()
	tz := tzclock.New(fake, cfg.Location, cfg.Window)
	fetches := repository.NewFetchLogRepository(db, log)
	source := service.NewDataSource(api.NewWinnersClient(cfg, fake, log), fetches, fake, log)
	board := service.NewBoardService(cfg, tz, source, log)
	latest := countdown.NewLatestSink(fake)

	return &fixture{
		handler: NewBoardServer(board, latest, fetches, cfg, log).Routes(),
		latest:  latest,
		dataDir: dataDir,
	}
}

func (f *fixture) do(t *testing.T, method, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec.Code
}

var sept3 = time.Date(2025, 9, 3, 12, 0, 0, 0, time.UTC)

func TestGetBoard(t *testing.T) {
	f := newFixture(t, sept3)

	var body boardResponse
	if code := f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	if len(body.Rows) != 2 {
		t.Fatalf("got %d rows, want top 2", len(body.Rows))
	}
	first := body.Rows[0]
	if first.Rank != 1 || first.Name != "high****er99" || first.AmountText != "$ 1,500.25" || first.Podium != "top1" {
		t.Errorf("first row = %+v", first)
	}
	if body.Meta.Date != "2025-09-03" || body.Meta.LastUpdated == nil {
		t.Errorf("meta = %+v", body.Meta)
	}
}

func TestGetBoardFallbackAndDefaults(t *testing.T) {
	f := newFixture(t, sept3)

	var body boardResponse
	f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-02", &body)
	if body.Meta.Date != "2025-09-01" || !body.Meta.Fallback {
		t.Errorf("meta = %+v, want fallback to 2025-09-01", body.Meta)
	}

	f.do(t, http.MethodGet, "/api/v1/board", &body)
	if body.Meta.Date != "2025-09-03" {
		t.Errorf("default date resolved %s, want today 2025-09-03", body.Meta.Date)
	}

	f.do(t, http.MethodGet, "/api/v1/board/yesterday", &body)
	if body.Meta.RequestedDate != "2025-09-02" {
		t.Errorf("yesterday requested %s, want 2025-09-02", body.Meta.RequestedDate)
	}

	f.do(t, http.MethodGet, "/api/v1/board/today", &body)
	if body.Meta.RequestedDate != "2025-09-03" {
		t.Errorf("today requested %s, want 2025-09-03", body.Meta.RequestedDate)
	}
}

func TestGetBoardErrors(t *testing.T) {
	f := newFixture(t, sept3)

	var errBody errorResponse
	if code := f.do(t, http.MethodGet, "/api/v1/board?date=09/03/2025", &errBody); code != http.StatusBadRequest {
		t.Errorf("malformed date status = %d, want 400", code)
	}

	if err := os.Remove(filepath.Join(f.dataDir, "winners-2025-09.json")); err != nil {
		t.Fatal(err)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", &errBody); code != http.StatusBadGateway {
		t.Errorf("missing data status = %d, want 502", code)
	}
	if errBody.Error != "Could not load leaderboard." {
		t.Errorf("error = %q", errBody.Error)
	}
}

func TestGetBoardNoData(t *testing.T) {
	f := newFixture(t, sept3)
	if err := os.WriteFile(filepath.Join(f.dataDir, "winners-2025-09.json"), []byte(`{"days": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var errBody errorResponse
	if code := f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", &errBody); code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if errBody.Error != "No results for 2025-09-03." {
		t.Errorf("error = %q", errBody.Error)
	}
}

func TestPostRefresh(t *testing.T) {
	f := newFixture(t, sept3)

	var body boardResponse
	f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", &body)

	updated := `{"days": [{"date": "2025-09-03", "rows": [{"name": "newcomer", "amount": 9999}]}]}`
	if err := os.WriteFile(filepath.Join(f.dataDir, "winners-2025-09.json"), []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", &body)
	if body.Rows[0].Name != "high****er99" {
		t.Errorf("cached read returned %q, want the cached leader", body.Rows[0].Name)
	}

	if code := f.do(t, http.MethodPost, "/api/v1/board/refresh?date=2025-09-03", &body); code != http.StatusOK {
		t.Fatalf("refresh status = %d", code)
	}
	if len(body.Rows) != 1 || body.Rows[0].Name != "ne****er" {
		t.Errorf("refreshed rows = %+v", body.Rows)
	}

	var fetches struct {
		Fetches []domain.FetchRecord `json:"fetches"`
	}
	f.do(t, http.MethodGet, "/api/v1/fetches", &fetches)
	if len(fetches.Fetches) != 2 {
		t.Errorf("archive has %d fetches, want 2", len(fetches.Fetches))
	}
}

func TestGetSearch(t *testing.T) {
	f := newFixture(t, sept3)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantFound bool
		wantMsg   string
	}{
		{"top n hit", "/api/v1/search?date=2025-09-03&name=LuckyDuck", 200, true, "LuckyDuck is #2 today."},
		{"outside top n", "/api/v1/search?date=2025-09-03&name=abcdef", 200, true, "abcdef is #3 today, not in Top 2."},
		{"miss", "/api/v1/search?date=2025-09-03&name=ghost", 200, false, `No exact match for "ghost" on 2025-09-03.`},
		{"blank", "/api/v1/search?date=2025-09-03&name=", 400, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Found   bool   `json:"found"`
				Rank    int    `json:"rank"`
				Message string `json:"message"`
			}
			code := f.do(t, http.MethodGet, tt.target, &body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d", code, tt.wantCode)
			}
			if code == http.StatusOK && (body.Found != tt.wantFound || body.Message != tt.wantMsg) {
				t.Errorf("body = %+v, want found=%v message=%q", body, tt.wantFound, tt.wantMsg)
			}
		})
	}
}

func TestGetCountdownAndConfig(t *testing.T) {
	f := newFixture(t, sept3)
	f.latest.ShowCountdown(domain.CountdownState{Hours: 11, Minutes: 59, Seconds: 58})

	var cd countdownResponse
	f.do(t, http.MethodGet, "/api/v1/countdown", &cd)
	if cd.Hours != 11 || cd.Minutes != 59 || cd.Seconds != 58 || cd.Ended {
		t.Errorf("countdown = %+v", cd)
	}

	var cfg configResponse
	f.do(t, http.MethodGet, "/api/v1/config", &cfg)
	if cfg.Window.Start != "2025-09-01" || cfg.Today != "2025-09-03" || cfg.TopN != 2 || cfg.Currency.Code != "USD" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestGetFetchesLastSuccess(t *testing.T) {
	f := newFixture(t, sept3)

	var body fetchesResponse
	f.do(t, http.MethodGet, "/api/v1/fetches", &body)
	if len(body.Fetches) != 0 || body.LastSuccess != nil {
		t.Fatalf("fresh archive = %+v, want empty", body)
	}

	f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", nil)
	if err := os.Remove(filepath.Join(f.dataDir, "winners-2025-09.json")); err != nil {
		t.Fatal(err)
	}
	f.do(t, http.MethodPost, "/api/v1/board/refresh", nil)

	if code := f.do(t, http.MethodGet, "/api/v1/fetches", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(body.Fetches) != 2 || body.Fetches[0].Status != domain.FetchStatusError {
		t.Errorf("fetches = %+v, want error newest", body.Fetches)
	}
	if body.LastSuccess == nil || body.LastSuccess.Status != domain.FetchStatusOK || body.LastSuccess.MonthKey != "2025-09" {
		t.Errorf("last_success = %+v, want the first ok fetch", body.LastSuccess)
	}
}

func TestRefreshFailureKeepsServingBoard(t *testing.T) {
	f := newFixture(t, sept3)
	f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", nil)

	if err := os.Remove(filepath.Join(f.dataDir, "winners-2025-09.json")); err != nil {
		t.Fatal(err)
	}
	if code := f.do(t, http.MethodPost, "/api/v1/board/refresh?date=2025-09-03", nil); code != http.StatusBadGateway {
		t.Errorf("refresh status = %d, want 502", code)
	}

	var body boardResponse
	if code := f.do(t, http.MethodGet, "/api/v1/board?date=2025-09-03", &body); code != http.StatusOK {
		t.Fatalf("board status = %d, want 200 from the cached month", code)
	}
	if len(body.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(body.Rows))
	}
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(logger.WithContext(context.Background()))

	rec := httptest.NewRecorder()
	writeJSON(rec, r, http.StatusOK, map[string]any{"bad": make(chan int)})

	if !strings.Contains(buf.String(), "failed to encode response") {
		t.Errorf("log = %q, want encode failure", buf.String())
	}
}
