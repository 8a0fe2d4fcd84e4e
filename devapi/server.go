// Package devapi is a local stand-in for the event API's layout endpoints,
// backed by SQLite. It exists for development and integration tests of the
// editor; it is not the production backend.
package devapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"croquis-cli/auth"
	"croquis-cli/model"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const devTokenTTL = 8 * time.Hour

type Options struct {
	// Secret enables bearer verification on every layout route. Empty means
	// the server is open.
	Secret string
	// Prefix is the path the routes are mounted under, "/api" by default.
	Prefix string
	// Quiet disables the request log.
	Quiet bool
}

type handler struct {
	repo   *Repository
	secret string
}

// NewServer builds the echo instance serving the layout contract.
func NewServer(repo *Repository, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	if !opts.Quiet {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				log.Printf("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
				return nil
			},
		}))
	}

	prefix := "/api"
	if opts.Prefix != "" {
		prefix = strings.TrimRight(opts.Prefix, "/")
	}
	h := &handler{repo: repo, secret: opts.Secret}

	api := e.Group(prefix)
	api.POST("/auth/login", h.login)

	events := api.Group("/eventos", h.requireToken)
	events.GET("", h.listEvents)
	events.GET("/:id", h.getEvent)
	events.GET("/:id/layout", h.getLayout)
	events.PUT("/:id/layout", h.putLayout, h.requireAdmin)
	events.DELETE("/:id/areas/:areaId", h.deleteArea, h.requireAdmin)
	return e
}

// requireToken checks the bearer token when a secret is configured.
func (h *handler) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.secret == "" {
			return next(c)
		}
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
		}
		claims, err := auth.Verify(strings.TrimPrefix(header, "Bearer "), h.secret)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "token expired"})
			}
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid token"})
		}
		c.Set("claims", claims)
		return next(c)
	}
}

func (h *handler) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.secret == "" {
			return next(c)
		}
		claims, ok := c.Get("claims").(auth.Claims)
		if !ok || !claims.IsAdmin() {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "administrator role required"})
		}
		return next(c)
	}
}

// login hands out an administrator token for any non-empty credentials.
func (h *handler) login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "correoElectronico y contraseña son obligatorios"})
	}
	secret := h.secret
	if secret == "" {
		secret = "dev"
	}
	token, err := auth.Sign(secret, 1, "ADMINISTRADOR", devTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not sign token"})
	}
	return c.JSON(http.StatusOK, model.LoginResponse{Token: token})
}

func (h *handler) listEvents(c echo.Context) error {
	events, err := h.repo.ListEvents(c.Request().Context())
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *handler) getEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.repo.GetEvent(c.Request().Context(), id)
	if err != nil {
		return repoError(c, err, "Evento no encontrado")
	}
	return c.JSON(http.StatusOK, event)
}

func (h *handler) getLayout(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	layout, err := h.repo.GetLayout(c.Request().Context(), id)
	if err != nil {
		return repoError(c, err, "Evento no encontrado")
	}
	return c.JSON(http.StatusOK, layout)
}

func (h *handler) putLayout(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var payload model.LayoutPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid layout body"})
	}
	layout, err := h.repo.SaveLayout(c.Request().Context(), id, payload)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return repoError(c, err, "Evento no encontrado")
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, layout)
}

func (h *handler) deleteArea(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	areaID, err := pathID(c, "areaId")
	if err != nil {
		return err
	}
	if err := h.repo.DeleteArea(c.Request().Context(), id, areaID); err != nil {
		return repoError(c, err, "Área no encontrada")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Área eliminada"})
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func repoError(c echo.Context, err error, notFound string) error {
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": notFound})
	}
	return serverError(c, err)
}

func serverError(c echo.Context, err error) error {
	log.Printf("devapi: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}
