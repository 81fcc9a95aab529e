package server

import (
	"net/http"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	HEALTH_OK   = "health_check: OK"
	HEALTH_FAIL = "health_check: FAIL"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)

	return e
}

// HealthCheckHandler answers 200 only when the master reports every child healthy.
func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, HEALTH_CHECK_TIMEOUT).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, HEALTH_FAIL)
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, HEALTH_OK)
	}
	return c.String(http.StatusServiceUnavailable, HEALTH_FAIL)
}
