package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"daily-leaderboard/internal/config"
	"daily-leaderboard/internal/constants"
	"daily-leaderboard/internal/countdown"
	"daily-leaderboard/internal/domain"
	"daily-leaderboard/internal/repository"
	"daily-leaderboard/internal/service"

	"github.com/rs/zerolog"
)

type BoardServer struct {
	board     *service.BoardService
	countdown *countdown.LatestSink
	fetches   *repository.FetchLogRepository
	periodKey string
	timezone  string
	currency  domain.Currency
	logger    zerolog.Logger
}

func NewBoardServer(
	board *service.BoardService,
	latest *countdown.LatestSink,
	fetches *repository.FetchLogRepository,
	cfg *config.Config,
	logger zerolog.Logger,
) *BoardServer {
	return &BoardServer{
		board:     board,
		countdown: latest,
		fetches:   fetches,
		periodKey: cfg.PeriodKey,
		timezone:  cfg.Timezone,
		currency:  cfg.Currency,
		logger:    logger,
	}
}

func (s *BoardServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/board", s.getBoard)
	mux.HandleFunc("GET /api/v1/board/today", s.getToday)
	mux.HandleFunc("GET /api/v1/board/yesterday", s.getYesterday)
	mux.HandleFunc("POST /api/v1/board/refresh", s.postRefresh)
	mux.HandleFunc("GET /api/v1/search", s.getSearch)
	mux.HandleFunc("GET /api/v1/countdown", s.getCountdown)
	mux.HandleFunc("GET /api/v1/fetches", s.getFetches)
	mux.HandleFunc("GET /api/v1/config", s.getConfig)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// jsonSink renders a board load as an HTTP response.
type jsonSink struct {
	w http.ResponseWriter
	r *http.Request
}

func (j jsonSink) ShowRows(rows []domain.DisplayRow, meta domain.DayMeta) {
	writeJSON(j.w, j.r, http.StatusOK, boardResponse{Meta: meta, Rows: rows})
}

func (j jsonSink) ShowNoData(date domain.CalendarDate) {
	writeJSON(j.w, j.r, http.StatusNotFound, errorResponse{
		Error: fmt.Sprintf("No results for %s.", date),
		Date:  date,
	})
}

func (j jsonSink) ShowLoadFailed(err error) {
	writeJSON(j.w, j.r, http.StatusBadGateway, errorResponse{Error: "Could not load leaderboard."})
}

type boardResponse struct {
	Meta domain.DayMeta      `json:"meta"`
	Rows []domain.DisplayRow `json:"rows"`
}

type errorResponse struct {
	Error string              `json:"error"`
	Date  domain.CalendarDate `json:"date,omitempty"`
}

type searchResponse struct {
	Found bool `json:"found"`
	*service.SearchResult
	Message string `json:"message"`
}

type countdownResponse struct {
	domain.CountdownState
	UpdatedAt time.Time `json:"updated_at"`
}

type fetchesResponse struct {
	Fetches     []domain.FetchRecord `json:"fetches"`
	LastSuccess *domain.FetchRecord  `json:"last_success,omitempty"`
}

type configResponse struct {
	Window   domain.Window   `json:"window"`
	Today    string          `json:"today"`
	Timezone string          `json:"timezone"`
	Currency domain.Currency `json:"currency"`
	TopN     int             `json:"top_n"`
}

func (s *BoardServer) getBoard(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()
	s.board.Render(ctx, date, jsonSink{w, r})
}

func (s *BoardServer) getToday(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()
	s.board.RenderToday(ctx, jsonSink{w, r})
}

func (s *BoardServer) getYesterday(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()
	s.board.RenderYesterday(ctx, jsonSink{w, r})
}

func (s *BoardServer) postRefresh(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	zerolog.Ctx(r.Context()).Info().Str("date", string(date)).Msg("refresh requested")
	s.board.Refresh(ctx, date, jsonSink{w, r})
}

func (s *BoardServer) getSearch(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	res, err := s.board.Search(ctx, date, r.URL.Query().Get("name"))

	var miss *domain.SearchMissError
	var notFound *domain.NotFoundError
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, searchResponse{Found: true, SearchResult: res, Message: res.Message})
	case errors.Is(err, domain.ErrEmptyQuery):
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "name is required"})
	case errors.As(err, &miss):
		writeJSON(w, r, http.StatusOK, searchResponse{
			Found:   false,
			Message: fmt.Sprintf("No exact match for %q on %s.", miss.Name, miss.Date),
		})
	case errors.As(err, &notFound):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "No data for selected date.", Date: notFound.Date})
	default:
		s.logger.Error().Err(err).Msg("search failed")
		writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "Search error. Try again."})
	}
}

func (s *BoardServer) getCountdown(w http.ResponseWriter, r *http.Request) {
	state, updatedAt := s.countdown.Latest()
	writeJSON(w, r, http.StatusOK, countdownResponse{CountdownState: state, UpdatedAt: updatedAt})
}

func (s *BoardServer) getFetches(w http.ResponseWriter, r *http.Request) {
	limit := constants.FetchLogDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.fetches.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list fetches")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "could not list fetches"})
		return
	}
	if records == nil {
		records = []domain.FetchRecord{}
	}

	resp := fetchesResponse{Fetches: records}
	last, err := s.fetches.LastSuccess(r.Context(), s.periodKey)
	switch {
	case err == nil:
		resp.LastSuccess = last
	case !errors.Is(err, sql.ErrNoRows):
		s.logger.Error().Err(err).Msg("failed to read last successful fetch")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "could not list fetches"})
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *BoardServer) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, configResponse{
		Window:   s.board.Window(),
		Today:    string(s.board.Today()),
		Timezone: s.timezone,
		Currency: s.currency,
		TopN:     s.board.TopN(),
	})
}

// dateParam reads ?date=, defaulting to today. It writes a 400 on bad input.
func (s *BoardServer) dateParam(w http.ResponseWriter, r *http.Request) (domain.CalendarDate, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.board.Today(), true
	}
	date, err := domain.ParseCalendarDate(raw)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}
