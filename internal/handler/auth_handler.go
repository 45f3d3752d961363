package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/app"
)

type AuthHandler struct {
	app *app.App
}

func NewAuthHandler(app *app.App) *AuthHandler {
	return &AuthHandler{
		app: app,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) HandleRegister(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	result, err := h.app.AuthService.Register(ctx.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusCreated, "User registered successfully", result)
}

func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	result, err := h.app.AuthService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	respond(ctx, http.StatusOK, "Login successful", result)
}
