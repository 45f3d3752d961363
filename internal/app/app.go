package app

import (
	"context"
	"errors"
	"io"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/config"
	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
	"github.com/qs-lzh/movie-booking/internal/service/workflow"
	"github.com/qs-lzh/movie-booking/internal/util"
)

type App struct {
	Config *config.Config

	Store  repository.Store
	Cache  *cache.RedisCache
	Logger *zap.Logger
	MQConn *amqp.Connection
	Clock  util.Clock
	Tokens *auth.TokenManager

	AuthService        domain.AuthService
	MovieService       domain.MovieService
	ShowtimeService    domain.ShowtimeService
	SeatService        domain.SeatService
	ReservationService domain.ReservationService
	ReportService      domain.ReportService

	ReservationWorkflow  *workflow.ReservationWorkflow
	NotificationWorkflow *workflow.NotificationWorkflow
}

// New wires the services. redisCache and mqConn may be nil, which turns
// the seat-map cache and reservation events off.
func New(config *config.Config, store repository.Store, redisCache *cache.RedisCache, mqConn *amqp.Connection, logger *zap.Logger, clock util.Clock) *App {
	var seatCache domain.SeatCache
	if redisCache != nil {
		seatCache = redisCache
	}
	var publisher workflow.EventPublisher
	if mqConn != nil {
		publisher = mq.NewPublisher(mqConn)
	}

	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenTTL, clock)

	authService := domain.NewAuthService(store.Repos().Users, tokens, config.BcryptCost, logger)
	movieService := domain.NewMovieService(store, seatCache, logger)
	showtimeService := domain.NewShowtimeService(store, seatCache, clock, logger)
	seatService := domain.NewSeatService(store, seatCache, logger)
	reservationService := domain.NewReservationService(store, clock, logger)
	reportService := domain.NewReportService(store)

	reservationWorkflow := workflow.NewReservationWorkflow(reservationService, publisher, seatCache, logger)
	notificationWorkflow := workflow.NewNotificationWorkflow(logger)

	return &App{
		Config:               config,
		Store:                store,
		Cache:                redisCache,
		Logger:               logger,
		MQConn:               mqConn,
		Clock:                clock,
		Tokens:               tokens,
		AuthService:          authService,
		MovieService:         movieService,
		ShowtimeService:      showtimeService,
		SeatService:          seatService,
		ReservationService:   reservationService,
		ReportService:        reportService,
		ReservationWorkflow:  reservationWorkflow,
		NotificationWorkflow: notificationWorkflow,
	}
}

func (app *App) Init(ctx context.Context) error {
	// seed admin
	if app.Config.AdminPassword != "" {
		if err := app.AuthService.EnsureAdmin(ctx, app.Config.AdminName, app.Config.AdminEmail, app.Config.AdminPassword); err != nil {
			return err
		}
	} else {
		app.Logger.Warn("ADMIN_PASSWORD not set, no admin account seeded")
	}

	// init rabbit mq
	if app.MQConn != nil {
		if err := mq.InitQueues(app.MQConn); err != nil {
			return err
		}
		if err := app.NotificationWorkflow.Start(app.MQConn); err != nil {
			return err
		}
	}

	return nil
}

func (app *App) Close() error {
	var errs []error
	if app.MQConn != nil {
		errs = append(errs, app.MQConn.Close())
	}
	if app.Cache != nil {
		errs = append(errs, app.Cache.Close())
	}
	if closer, ok := app.Store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
