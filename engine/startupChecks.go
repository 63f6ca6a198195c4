package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/drummonds/gopdfapi/engine/pdfops"
)

const startupCheckTimeout = 10 * time.Second

// StartupChecks performs all the checks to make sure everything works.
// Only a missing transform engine is fatal, the rest degrade the service.
func (serverHandler *ServerHandler) StartupChecks() error {
	if serverHandler.PDF == nil {
		return fmt.Errorf("no PDF transform engine configured")
	}
	rendererChecks(serverHandler)
	pageRendererChecks(serverHandler)
	return nil
}

// rendererChecks logs whether conversions will work, the renderer may come up after us
func rendererChecks(serverHandler *ServerHandler) {
	if serverHandler.Renderer == nil {
		Logger.Warn("No renderer configured, office, HTML, URL, Markdown and PDF/A conversion are unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupCheckTimeout)
	defer cancel()
	if err := serverHandler.Renderer.Health(ctx); err != nil {
		Logger.Warn("Renderer not reachable at startup, conversions will fail until it is",
			"renderer", serverHandler.Renderer.Name(), "error", err)
		return
	}
	Logger.Info("Renderer reachable", "renderer", serverHandler.Renderer.Name())
}

// pageRendererChecks renders a one page document so a broken rasteriser shows up in the log
func pageRendererChecks(serverHandler *ServerHandler) {
	if serverHandler.Pages == nil {
		Logger.Warn("No page renderer, PDF to image conversion is unavailable")
		return
	}
	images, err := serverHandler.Pages.RenderPages(pdfops.BlankPage(), []int{0}, minImageDPI)
	if err != nil || len(images) != 1 {
		Logger.Error("Page renderer failed its self test", "error", err)
		return
	}
	Logger.Info("Page renderer ready", "size", images[0].Bounds().Size())
}
