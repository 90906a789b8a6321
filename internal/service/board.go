package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"daily-leaderboard/internal/config"
	"daily-leaderboard/internal/dayresolver"
	"daily-leaderboard/internal/domain"
	"daily-leaderboard/internal/mask"
	"daily-leaderboard/internal/ranking"
	"daily-leaderboard/internal/tzclock"

	"github.com/rs/zerolog"
)

// RenderSink receives the outcome of a board load. Exactly one method is
// called per load.
type RenderSink interface {
	ShowRows(rows []domain.DisplayRow, meta domain.DayMeta)
	ShowNoData(date domain.CalendarDate)
	ShowLoadFailed(err error)
}

type BoardView struct {
	Meta  domain.DayMeta      `json:"meta"`
	Rows  []domain.DisplayRow `json:"rows"`
	Total int                 `json:"total"`
}

type SearchResult struct {
	Name    string              `json:"name"`
	Rank    int                 `json:"rank"`
	Date    domain.CalendarDate `json:"date"`
	InTopN  bool                `json:"in_top_n"`
	TopN    int                 `json:"top_n"`
	Message string              `json:"message"`
}

type BoardService struct {
	periodKey string
	topN      int
	clock     *tzclock.Clock
	source    *DataSource
	money     *MoneyFormatter
	logger    zerolog.Logger
}

func NewBoardService(cfg *config.Config, clock *tzclock.Clock, source *DataSource, logger zerolog.Logger) *BoardService {
	return &BoardService{
		periodKey: cfg.PeriodKey,
		topN:      cfg.TopN,
		clock:     clock,
		source:    source,
		money:     NewMoneyFormatter(cfg.Currency),
		logger:    logger,
	}
}

func (s *BoardService) Window() domain.Window { return s.clock.Window() }

func (s *BoardService) TopN() int { return s.topN }

// Today is the zone's current date clamped to the event window.
func (s *BoardService) Today() domain.CalendarDate {
	return s.clock.Window().Clamp(s.clock.Today())
}

func (s *BoardService) Yesterday() domain.CalendarDate {
	return s.clock.Window().Clamp(s.clock.Yesterday())
}

// Board resolves, ranks and masks the leaderboard for date.
func (s *BoardService) Board(ctx context.Context, date domain.CalendarDate) (*BoardView, error) {
	clamped := s.clock.Window().Clamp(date)

	day, err := s.resolve(ctx, clamped)
	if err != nil {
		return nil, err
	}

	ranked := ranking.Rank(day.Rows)
	top := ranking.TopN(ranked, s.topN)

	rows := make([]domain.DisplayRow, 0, len(top))
	for _, r := range top {
		rows = append(rows, domain.DisplayRow{
			Rank:       r.Rank,
			Name:       mask.Mask(r.Name),
			Amount:     r.Amount,
			AmountText: s.money.Format(r.Amount),
			Game:       r.Game,
			Podium:     podium(r.Rank),
		})
	}

	s.logger.Debug().
		Str("requested", string(date)).
		Str("resolved", string(day.Date)).
		Int("rows", len(rows)).
		Int("total", len(ranked)).
		Msg("board resolved")

	return &BoardView{
		Meta: domain.DayMeta{
			Date:          day.Date,
			RequestedDate: clamped,
			LastUpdated:   day.LastUpdated,
			Fallback:      day.Date != clamped,
		},
		Rows:  rows,
		Total: len(ranked),
	}, nil
}

// Render loads the board for date and reports the outcome to sink.
func (s *BoardService) Render(ctx context.Context, date domain.CalendarDate, sink RenderSink) error {
	view, err := s.Board(ctx, date)
	s.dispatch(view, err, sink)
	return err
}

// Refresh re-fetches the period before rendering date.
func (s *BoardService) Refresh(ctx context.Context, date domain.CalendarDate, sink RenderSink) error {
	if _, err := s.source.Reload(ctx, s.periodKey); err != nil {
		s.dispatch(nil, err, sink)
		return err
	}
	return s.Render(ctx, date, sink)
}

func (s *BoardService) RenderToday(ctx context.Context, sink RenderSink) error {
	return s.Render(ctx, s.Today(), sink)
}

func (s *BoardService) RenderYesterday(ctx context.Context, sink RenderSink) error {
	return s.Render(ctx, s.Yesterday(), sink)
}

// Search finds name's rank in the full ranking for date, not only the
// displayed top N.
func (s *BoardService) Search(ctx context.Context, date domain.CalendarDate, name string) (*SearchResult, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	clamped := s.clock.Window().Clamp(date)
	day, err := s.resolve(ctx, clamped)
	if err != nil {
		return nil, err
	}
	if len(day.Rows) == 0 {
		return nil, &domain.NotFoundError{Date: clamped}
	}

	rank, ok := ranking.FindRank(ranking.Rank(day.Rows), query)
	if !ok {
		s.logger.Debug().Str("date", string(day.Date)).Msg("search miss")
		return nil, &domain.SearchMissError{Name: query, Date: day.Date}
	}

	res := &SearchResult{
		Name:   query,
		Rank:   rank,
		Date:   day.Date,
		InTopN: rank <= s.topN,
		TopN:   s.topN,
	}
	if res.InTopN {
		res.Message = fmt.Sprintf("%s is #%d today.", query, rank)
	} else {
		res.Message = fmt.Sprintf("%s is #%d today, not in Top %d.", query, rank, s.topN)
	}
	return res, nil
}

func (s *BoardService) resolve(ctx context.Context, date domain.CalendarDate) (domain.DayRecord, error) {
	month, err := s.source.Month(ctx, s.periodKey)
	if err != nil {
		return domain.DayRecord{}, err
	}
	day, ok := dayresolver.Resolve(month, date)
	if !ok {
		return domain.DayRecord{}, &domain.NotFoundError{Date: date}
	}
	return day, nil
}

func (s *BoardService) dispatch(view *BoardView, err error, sink RenderSink) {
	if sink == nil {
		return
	}
	var notFound *domain.NotFoundError
	switch {
	case err == nil:
		sink.ShowRows(view.Rows, view.Meta)
	case errors.As(err, &notFound):
		sink.ShowNoData(notFound.Date)
	default:
		s.logger.Error().Err(err).Msg("failed to load leaderboard")
		sink.ShowLoadFailed(err)
	}
}

func podium(rank int) string {
	if rank >= 1 && rank <= 3 {
		return fmt.Sprintf("top%d", rank)
	}
	return ""
}
