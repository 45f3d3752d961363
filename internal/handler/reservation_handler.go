package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
)

type ReservationHandler struct {
	app *app.App
}

func NewReservationHandler(app *app.App) *ReservationHandler {
	return &ReservationHandler{
		app: app,
	}
}

type ReserveRequest struct {
	ShowtimeID  uint     `json:"showtimeId" binding:"required"`
	SeatNumbers []string `json:"seatNumbers" binding:"required,min=1"`
}

func (h *ReservationHandler) HandleReserve(ctx *gin.Context) {
	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	view, err := h.app.ReservationWorkflow.Book(ctx.Request.Context(), currentUserID(ctx), req.ShowtimeID, req.SeatNumbers)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusCreated, "Reservation created successfully", view)
}

func (h *ReservationHandler) HandleCancel(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}

	view, err := h.app.ReservationWorkflow.Cancel(ctx.Request.Context(), id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Reservation cancelled successfully", view)
}

func (h *ReservationHandler) HandleMyReservations(ctx *gin.Context) {
	views, err := h.app.ReservationService.ListActive(ctx.Request.Context(), currentUserID(ctx))
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Reservations retrieved successfully", views)
}

func (h *ReservationHandler) HandleMyUpcomingReservations(ctx *gin.Context) {
	views, err := h.app.ReservationService.ListUpcoming(ctx.Request.Context(), currentUserID(ctx))
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Upcoming reservations retrieved successfully", views)
}

func (h *ReservationHandler) HandleGetReservation(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}

	view, err := h.app.ReservationService.GetByID(ctx.Request.Context(), id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Reservation retrieved successfully", view)
}

func (h *ReservationHandler) HandleAllReservations(ctx *gin.Context) {
	views, err := h.app.ReservationService.ListAllActive(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "All reservations retrieved successfully", views)
}
