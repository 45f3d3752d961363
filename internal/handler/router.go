package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/metrics"
	"github.com/qs-lzh/movie-booking/internal/middleware"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/tracing"
)

func NewRouter(app *app.App) *gin.Engine {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(app.Logger))
	r.Use(middleware.RequestID())
	r.Use(tracing.Middleware())
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger(app.Logger))
	r.Use(cors.New(corsConfig(app.Config.CORSAllowedOrigins)))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(app)
	movieHandler := NewMovieHandler(app)
	showtimeHandler := NewShowtimeHandler(app)
	reservationHandler := NewReservationHandler(app)
	reportHandler := NewReportHandler(app)

	requireAuth := middleware.JWTAuth(app.Tokens)
	requireAdmin := middleware.RequireRole(model.RoleAdmin)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.HandleRegister)
	authGroup.POST("/login", authHandler.HandleLogin)

	movies := api.Group("/movies")
	movies.GET("", movieHandler.HandleListMovies)
	movies.GET("/:id", movieHandler.HandleGetMovie)
	movies.POST("", requireAuth, requireAdmin, movieHandler.HandleCreateMovie)
	movies.PUT("/:id", requireAuth, requireAdmin, movieHandler.HandleUpdateMovie)
	movies.DELETE("/:id", requireAuth, requireAdmin, movieHandler.HandleDeleteMovie)

	showtimes := api.Group("/showtimes")
	showtimes.GET("", showtimeHandler.HandleUpcomingShowtimes)
	showtimes.GET("/:id", showtimeHandler.HandleGetShowtime)
	showtimes.GET("/movie/:movieId", showtimeHandler.HandleShowtimesByMovie)
	showtimes.GET("/movie/:movieId/date", showtimeHandler.HandleShowtimesByMovieAndDate)
	showtimes.POST("", requireAuth, requireAdmin, showtimeHandler.HandleCreateShowtime)
	showtimes.PUT("/:id", requireAuth, requireAdmin, showtimeHandler.HandleUpdateShowtime)
	showtimes.DELETE("/:id", requireAuth, requireAdmin, showtimeHandler.HandleDeleteShowtime)

	api.GET("/seats/showtime/:showtimeId", showtimeHandler.HandleSeatsByShowtime)

	reservations := api.Group("/reservations", requireAuth)
	reservations.POST("", reservationHandler.HandleReserve)
	reservations.GET("/my-reservations", reservationHandler.HandleMyReservations)
	reservations.GET("/my-upcoming-reservations", reservationHandler.HandleMyUpcomingReservations)
	reservations.GET("/all", requireAdmin, reservationHandler.HandleAllReservations)
	reservations.GET("/:id", reservationHandler.HandleGetReservation)
	reservations.PUT("/:id/cancel", reservationHandler.HandleCancel)

	api.GET("/admin/reports", requireAuth, requireAdmin, reportHandler.HandleReport)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
