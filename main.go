package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	config "github.com/drummonds/gopdfapi/config"
	engine "github.com/drummonds/gopdfapi/engine"
	"github.com/drummonds/gopdfapi/engine/pdfops"
	"github.com/drummonds/gopdfapi/engine/pdfrenderer"
	"github.com/drummonds/gopdfapi/engine/renderer"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
	pdfops.Logger = Logger
	renderer.Logger = Logger
	pdfrenderer.Logger = Logger
}

// newServerHandler builds every dependency once; the handlers only ever see these instances
func newServerHandler(serverConfig config.ServerConfig) (*engine.ServerHandler, error) {
	e := echo.New()
	e.HideBanner = true

	conversionRenderer, err := renderer.New(renderer.Config{
		Backend:         serverConfig.RendererBackend,
		GotenbergURL:    serverConfig.GotenbergURL,
		Timeout:         serverConfig.RendererTimeout,
		PDFAFormat:      serverConfig.PDFAFormat,
		ChromePath:      serverConfig.ChromePath,
		ChromeNoSandbox: serverConfig.ChromeNoSandbox,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	serverHandler := &engine.ServerHandler{
		Echo:         e,
		ServerConfig: serverConfig,
		Renderer:     conversionRenderer,
		PDF:          pdfops.New(),
	}

	pages, err := pdfrenderer.New(serverConfig.PageRenderer)
	if err != nil {
		Logger.Error("Page renderer unavailable, PDF to image is disabled", "backend", serverConfig.PageRenderer, "error", err)
	} else {
		serverHandler.Pages = pages
	}

	serverHandler.UseMiddleware()
	serverHandler.RegisterRoutes()
	return serverHandler, nil
}

// closeServerHandler releases the browser and the wasm runtime
func closeServerHandler(serverHandler *engine.ServerHandler) {
	if err := serverHandler.Renderer.Close(); err != nil {
		Logger.Warn("Failed to close renderer", "error", err)
	}
	if serverHandler.Pages != nil {
		if err := serverHandler.Pages.Close(); err != nil {
			Logger.Warn("Failed to close page renderer", "error", err)
		}
	}
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	serverHandler, err := newServerHandler(serverConfig)
	if err != nil {
		Logger.Error("Failed to set up server", "error", err)
		os.Exit(1)
	}
	defer closeServerHandler(serverHandler)
	Logger.Info("Echo created", "renderer", serverHandler.Renderer.Name())

	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	Logger.Info("Startup checks complete")

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := serverHandler.Echo.Shutdown(shutdownCtx); err != nil {
			Logger.Error("Shutdown failed", "error", err)
		}
	}()

	Logger.Info("Starting HTTP server")
	if err := startWithRetry(serverHandler.Echo, &serverConfig); err != nil {
		Logger.Error("Failed to start server", "error", err)
		closeServerHandler(serverHandler)
		os.Exit(1)
	}
}

// startWithRetry tries the configured port and then the next few when it is taken
func startWithRetry(e *echo.Echo, serverConfig *config.ServerConfig) error {
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr := e.Start(addr)
		switch {
		case startErr == nil, errors.Is(startErr, http.ErrServerClosed):
			if serverConfig.ListenAddrPort != startPort {
				Logger.Warn("Server ran on alternative port due to conflicts",
					"requested_port", startPort,
					"actual_port", serverConfig.ListenAddrPort)
			}
			return nil
		case isAddressInUse(startErr):
			Logger.Warn("Port already in use, trying next port",
				"port", serverConfig.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)
			portNum := 0
			fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
			serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum+1)
		default:
			return startErr
		}
	}
	return fmt.Errorf("no free port between %s and %s after %d attempts", startPort, serverConfig.ListenAddrPort, maxRetries)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
