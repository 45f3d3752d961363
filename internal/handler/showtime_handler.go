package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type ShowtimeHandler struct {
	app *app.App
}

func NewShowtimeHandler(app *app.App) *ShowtimeHandler {
	return &ShowtimeHandler{
		app: app,
	}
}

type ShowtimeRequest struct {
	MovieID    uint      `json:"movieId" binding:"required"`
	StartTime  time.Time `json:"startTime" binding:"required"`
	EndTime    time.Time `json:"endTime" binding:"required"`
	TotalSeats int       `json:"totalSeats" binding:"required,min=1"`
}

func (r ShowtimeRequest) input() domain.ShowtimeInput {
	return domain.ShowtimeInput{
		MovieID:    r.MovieID,
		StartAt:    r.StartTime,
		EndAt:      r.EndTime,
		TotalSeats: r.TotalSeats,
	}
}

func (h *ShowtimeHandler) HandleUpcomingShowtimes(ctx *gin.Context) {
	views, err := h.app.ShowtimeService.GetUpcomingShowtimes(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Upcoming showtimes retrieved successfully", views)
}

func (h *ShowtimeHandler) HandleGetShowtime(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	view, err := h.app.ShowtimeService.GetShowtimeByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Showtime retrieved successfully", view)
}

func (h *ShowtimeHandler) HandleShowtimesByMovie(ctx *gin.Context) {
	movieID, err := parseIDParam(ctx, "movieId")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	views, err := h.app.ShowtimeService.GetShowtimesByMovieID(ctx.Request.Context(), movieID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Showtimes retrieved successfully", views)
}

func (h *ShowtimeHandler) HandleShowtimesByMovieAndDate(ctx *gin.Context) {
	movieID, err := parseIDParam(ctx, "movieId")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	date, err := time.Parse(time.DateOnly, ctx.Query("date"))
	if err != nil {
		respondError(ctx, h.app.Logger, fmt.Errorf("%w: date must be YYYY-MM-DD", service.ErrInvalidInput))
		return
	}
	views, err := h.app.ShowtimeService.GetShowtimesByMovieAndDate(ctx.Request.Context(), movieID, date)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Showtimes retrieved successfully", views)
}

func (h *ShowtimeHandler) HandleCreateShowtime(ctx *gin.Context) {
	var req ShowtimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	view, err := h.app.ShowtimeService.CreateShowtime(ctx.Request.Context(), req.input())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusCreated, "Showtime created successfully", view)
}

func (h *ShowtimeHandler) HandleUpdateShowtime(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	var req ShowtimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	view, err := h.app.ShowtimeService.UpdateShowtime(ctx.Request.Context(), id, req.input())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Showtime updated successfully", view)
}

func (h *ShowtimeHandler) HandleDeleteShowtime(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	if err := h.app.ShowtimeService.DeleteShowtime(ctx.Request.Context(), id); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Showtime deleted successfully", nil)
}

func (h *ShowtimeHandler) HandleSeatsByShowtime(ctx *gin.Context) {
	showtimeID, err := parseIDParam(ctx, "showtimeId")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	seats, err := h.app.SeatService.GetSeatsByShowtimeID(ctx.Request.Context(), showtimeID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Seats retrieved successfully", seats)
}
