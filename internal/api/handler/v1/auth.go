package v1

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/granrifa/rifa-api/internal/api/handler/v1/request"
	"github.com/granrifa/rifa-api/internal/api/handler/v1/response"
	"github.com/granrifa/rifa-api/internal/api/middleware"
	"github.com/granrifa/rifa-api/internal/config"
	"github.com/granrifa/rifa-api/internal/pkg/jwthelper"
	"github.com/granrifa/rifa-api/internal/service"
)

type AuthService interface {
	Login(username, password string) error
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleLogin godoc
// @Summary      Login as the raffle admin
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := h.svc.Login(req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrWrongCredentials) {
			response.RenderErr(ctx, response.ErrUnauthorized(err))

			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ttl := time.Duration(h.conf.SessionTTLHours) * time.Hour
	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), req.Username, ctx.Request.UserAgent(), ttl)
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	// The browser UI rides on the cookie; API callers can use the token
	// from the body as a Bearer header instead.
	secure := h.conf.Environment == "production"
	ctx.SetCookie(middleware.SessionCookieName, token, int(ttl.Seconds()), "/", "", secure, true)

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
	})
}

// HandleLogout godoc
// @Summary      Logout and clear the session cookie
// @Tags         auth
// @Produce      json
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	secure := h.conf.Environment == "production"
	ctx.SetCookie(middleware.SessionCookieName, "", -1, "/", "", secure, true)

	ctx.Status(http.StatusNoContent)
}
