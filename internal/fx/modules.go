package fx

import (
	"daily-leaderboard/internal/api"
	"daily-leaderboard/internal/config"
	"daily-leaderboard/internal/countdown"
	"daily-leaderboard/internal/database"
	"daily-leaderboard/internal/logger"
	"daily-leaderboard/internal/repository"
	"daily-leaderboard/internal/server"
	"daily-leaderboard/internal/service"
	"daily-leaderboard/internal/tzclock"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func ProvideTimeZoneClock(clock clockwork.Clock, cfg *config.Config) *tzclock.Clock {
	return tzclock.New(clock, cfg.Location, cfg.Window)
}

func ProvideCountdownEngine(clock clockwork.Clock, tz *tzclock.Clock, latest *countdown.LatestSink, log zerolog.Logger) *countdown.Engine {
	log = log.With().Str("component", "countdown").Logger()
	sink := countdown.MultiSink{latest, countdown.NewLogSink(log)}
	return countdown.NewEngine(clock, tz, sink, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(ProvideClock),
	fx.Provide(ProvideTimeZoneClock),
	fx.Provide(database.New),
	// archive
	fx.Provide(fx.Annotate(
		repository.NewFetchLogRepository,
		fx.As(fx.Self()),
		fx.As(new(service.FetchRecorder)),
	)),
	// data source
	fx.Provide(fx.Annotate(
		api.NewWinnersClient,
		fx.As(new(service.MonthFetcher)),
	)),
	fx.Provide(service.NewDataSource),
	// svc
	fx.Provide(service.NewBoardService),
	// countdown
	fx.Provide(countdown.NewLatestSink),
	fx.Provide(ProvideCountdownEngine),
	// server
	fx.Provide(server.NewBoardServer),
)
