package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/model"
)

type MovieHandler struct {
	app *app.App
}

func NewMovieHandler(app *app.App) *MovieHandler {
	return &MovieHandler{
		app: app,
	}
}

type MovieRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	PosterURL   string `json:"posterUrl"`
}

type MovieResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	PosterURL   string `json:"posterUrl"`
}

func toMovieResponse(m *model.Movie) MovieResponse {
	return MovieResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genre:       m.Genre,
		PosterURL:   m.PosterURL,
	}
}

func (h *MovieHandler) HandleListMovies(ctx *gin.Context) {
	movies, err := h.app.MovieService.GetAllMovies(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	resp := make([]MovieResponse, 0, len(movies))
	for i := range movies {
		resp = append(resp, toMovieResponse(&movies[i]))
	}
	respond(ctx, http.StatusOK, "Movies retrieved successfully", resp)
}

func (h *MovieHandler) HandleGetMovie(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	movie, err := h.app.MovieService.GetMovieByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Movie retrieved successfully", toMovieResponse(movie))
}

func (h *MovieHandler) HandleCreateMovie(ctx *gin.Context) {
	var req MovieRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	movie := &model.Movie{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		PosterURL:   req.PosterURL,
	}
	if err := h.app.MovieService.CreateMovie(ctx.Request.Context(), movie); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusCreated, "Movie created successfully", toMovieResponse(movie))
}

func (h *MovieHandler) HandleUpdateMovie(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	var req MovieRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	movie := &model.Movie{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		PosterURL:   req.PosterURL,
	}
	if err := h.app.MovieService.UpdateMovie(ctx.Request.Context(), movie); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Movie updated successfully", toMovieResponse(movie))
}

func (h *MovieHandler) HandleDeleteMovie(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	if err := h.app.MovieService.DeleteMovie(ctx.Request.Context(), id); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Movie deleted successfully", nil)
}
