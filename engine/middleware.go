package engine

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
)

// NewRequestID returns a sortable id for the X-Request-ID header
func NewRequestID() string {
	return ulid.Make().String()
}

// UseMiddleware installs the error handler and the middleware stack every route runs behind
func (serverHandler *ServerHandler) UseMiddleware() {
	e := serverHandler.Echo
	e.HTTPErrorHandler = serverHandler.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: NewRequestID}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `${time_rfc3339} ${id} ${method} ${uri} ${status} ${latency_human} in=${bytes_in} out=${bytes_out}` + "\n",
	}))

	corsConfig := middleware.DefaultCORSConfig
	if len(serverHandler.ServerConfig.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = serverHandler.ServerConfig.CORSOrigins
	}
	corsConfig.ExposeHeaders = []string{echo.HeaderContentDisposition, echo.HeaderXRequestID}
	e.Use(middleware.CORSWithConfig(corsConfig))

	if serverHandler.ServerConfig.MaxUploadSize > 0 {
		e.Use(middleware.BodyLimit(serverHandler.ServerConfig.UploadLimit()))
	}
}
