package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 5 * time.Second

// StatusResponse answers /ping
type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse answers /api/health, services maps a component to healthy or unavailable
type HealthResponse struct {
	StatusResponse
	Services map[string]string `json:"services"`
}

type FormatsResponse struct {
	Success     bool              `json:"success"`
	Formats     SupportedFormats  `json:"formats"`
	Conversions map[string]string `json:"conversions"`
	Limits      Limits            `json:"limits"`
}

type SupportedFormats struct {
	Office OfficeFormats `json:"office"`
	Images []string      `json:"images"`
	Web    []string      `json:"web"`
	PDF    []string      `json:"pdf"`
}

type OfficeFormats struct {
	Word       []string `json:"word"`
	Excel      []string `json:"excel"`
	PowerPoint []string `json:"powerpoint"`
}

type Limits struct {
	MaxUploadSize string `json:"maxUploadSize"`
	MaxFiles      int    `json:"maxFiles"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Ping is a lightweight keep-alive
func (serverHandler *ServerHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok", Timestamp: now()})
}

// Health reports the API and renderer status. An unreachable renderer is reported, never raised.
// @Summary Service health
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (serverHandler *ServerHandler) Health(c echo.Context) error {
	services := map[string]string{"api": "healthy"}

	name := "renderer"
	status := "unavailable"
	if serverHandler.Renderer != nil {
		name = serverHandler.Renderer.Name()
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		defer cancel()
		if err := serverHandler.Renderer.Health(ctx); err != nil {
			Logger.Warn("Renderer health check failed", "renderer", name, "error", err)
		} else {
			status = "healthy"
		}
	}
	services[name] = status

	if serverHandler.Pages != nil {
		services["pageRenderer"] = "healthy"
	} else {
		services["pageRenderer"] = "unavailable"
	}

	return c.JSON(http.StatusOK, HealthResponse{
		StatusResponse: StatusResponse{Status: "ok", Timestamp: now()},
		Services:       services,
	})
}

// Formats lists what the API accepts
// @Summary Supported formats
// @Tags System
// @Produce json
// @Success 200 {object} FormatsResponse
// @Router /formats [get]
func (serverHandler *ServerHandler) Formats(c echo.Context) error {
	return c.JSON(http.StatusOK, FormatsResponse{
		Success: true,
		Formats: SupportedFormats{
			Office: OfficeFormats{
				Word:       []string{"doc", "docx", "odt"},
				Excel:      []string{"xls", "xlsx", "ods"},
				PowerPoint: []string{"ppt", "pptx", "odp"},
			},
			Images: []string{"jpg", "jpeg", "png", "webp", "tiff", "gif", "bmp"},
			Web:    []string{"html", "url", "markdown"},
			PDF:    []string{"pdf", "pdfa", "png", "jpg"},
		},
		Conversions: map[string]string{
			"office-to-pdf":  "Convert Word, Excel, PowerPoint to PDF",
			"web-to-pdf":     "Convert HTML, URLs, Markdown to PDF",
			"images-to-pdf":  "Combine images into PDF",
			"pdf-utilities":  "Merge, split, compress, rotate, encrypt, decrypt and watermark PDFs",
			"pdf-inspection": "Read metadata and extract text locally",
			"pdf-to-images":  "Render PDF pages as PNG or JPEG",
		},
		Limits: Limits{
			MaxUploadSize: humanize.Bytes(serverHandler.ServerConfig.MaxUploadSize),
			MaxFiles:      serverHandler.ServerConfig.MaxFiles,
		},
	})
}
