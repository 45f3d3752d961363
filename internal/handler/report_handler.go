package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
)

type ReportHandler struct {
	app *app.App
}

func NewReportHandler(app *app.App) *ReportHandler {
	return &ReportHandler{
		app: app,
	}
}

// HandleReport returns occupancy and revenue across every showtime.
func (h *ReportHandler) HandleReport(ctx *gin.Context) {
	report, err := h.app.ReportService.GenerateReport(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Report generated successfully", report)
}
