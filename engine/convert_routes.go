package engine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/gopdfapi/engine/apierr"
	"github.com/drummonds/gopdfapi/engine/renderer"
)

// Source extensions replaced by .pdf in the download name.
var (
	wordExtensions       = regexp.MustCompile(`(?i)\.(docx?|odt)$`)
	excelExtensions      = regexp.MustCompile(`(?i)\.(xlsx?|ods)$`)
	powerpointExtensions = regexp.MustCompile(`(?i)\.(pptx?|odp)$`)
	officeExtensions     = regexp.MustCompile(`(?i)\.(docx?|xlsx?|pptx?|odt|ods|odp)$`)
)

// HTMLRequest is the body of the HTML route, exactly one of HTML and URL is set
type HTMLRequest struct {
	HTML    string                      `json:"html,omitempty"`
	URL     string                      `json:"url,omitempty"`
	Options *renderer.ConversionOptions `json:"options,omitempty"`
}

type MarkdownRequest struct {
	Markdown string                      `json:"markdown"`
	Options  *renderer.ConversionOptions `json:"options,omitempty"`
}

// officePDFName swaps the office extension for .pdf
func officePDFName(name string, extensions *regexp.Regexp) string {
	if extensions.MatchString(name) {
		return extensions.ReplaceAllString(name, ".pdf")
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
}

// ConvertOffice returns a handler converting an uploaded office document with the renderer.
// The extensions decide how the download is named.
// @Summary Convert an office document to PDF
// @Tags Convert
// @Accept multipart/form-data
// @Produce application/pdf
// @Param file formData file true "Office document"
// @Param options formData string false "ConversionOptions as JSON"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /convert/office-to-pdf [post]
func (serverHandler *ServerHandler) ConvertOffice(extensions *regexp.Regexp) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileName, data, err := readUpload(c, "file")
		if err != nil {
			return serverHandler.fail(c, err)
		}
		var opts renderer.ConversionOptions
		if err := decodeFormJSON(c, "options", false, &opts); err != nil {
			return serverHandler.fail(c, err)
		}
		if err := opts.Validate(); err != nil {
			return serverHandler.fail(c, err)
		}

		Logger.Info("Converting office document", "fileName", fileName, "renderer", serverHandler.Renderer.Name())
		pdf, err := serverHandler.Renderer.ConvertOffice(c.Request().Context(), fileName, data, &opts)
		if err != nil {
			return serverHandler.fail(c, err)
		}
		return sendFileDownload(c, pdf, officePDFName(fileName, extensions), contentTypePDF)
	}
}

// ConvertHTML renders inline HTML or a URL
// @Summary Convert HTML or a URL to PDF
// @Tags Convert
// @Accept json
// @Produce application/pdf
// @Param request body HTMLRequest true "html or url, plus options"
// @Router /convert/html-to-pdf [post]
func (serverHandler *ServerHandler) ConvertHTML(c echo.Context) error {
	var req HTMLRequest
	if err := decodeBody(c, &req); err != nil {
		return serverHandler.fail(c, err)
	}
	if req.HTML == "" && req.URL == "" {
		return serverHandler.fail(c, apierr.Missing("Either html or url must be provided"))
	}
	if req.HTML != "" && req.URL != "" {
		return serverHandler.fail(c, fmt.Errorf("%w: provide html or url, not both", apierr.ErrInvalidOption))
	}
	if err := req.Options.Validate(); err != nil {
		return serverHandler.fail(c, err)
	}

	ctx := c.Request().Context()
	var pdf []byte
	var err error
	if req.URL != "" {
		pdf, err = serverHandler.Renderer.ConvertURL(ctx, req.URL, req.Options)
	} else {
		pdf, err = serverHandler.Renderer.ConvertHTML(ctx, req.HTML, req.Options)
	}
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, pdf, "converted.pdf", contentTypePDF)
}

// ConvertURL renders a web page
// @Summary Convert a web page to PDF
// @Tags Convert
// @Router /convert/url-to-pdf [post]
func (serverHandler *ServerHandler) ConvertURL(c echo.Context) error {
	var req HTMLRequest
	if err := decodeBody(c, &req); err != nil {
		return serverHandler.fail(c, err)
	}
	if req.URL == "" {
		return serverHandler.fail(c, apierr.Missing("URL is required"))
	}
	if err := req.Options.Validate(); err != nil {
		return serverHandler.fail(c, err)
	}

	pdf, err := serverHandler.Renderer.ConvertURL(c.Request().Context(), req.URL, req.Options)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, pdf, "webpage.pdf", contentTypePDF)
}

// ConvertMarkdown renders Markdown
// @Summary Convert Markdown to PDF
// @Tags Convert
// @Router /convert/markdown-to-pdf [post]
func (serverHandler *ServerHandler) ConvertMarkdown(c echo.Context) error {
	var req MarkdownRequest
	if err := decodeBody(c, &req); err != nil {
		return serverHandler.fail(c, err)
	}
	if strings.TrimSpace(req.Markdown) == "" {
		return serverHandler.fail(c, apierr.Missing("Markdown content is required"))
	}
	if err := req.Options.Validate(); err != nil {
		return serverHandler.fail(c, err)
	}

	pdf, err := serverHandler.Renderer.ConvertMarkdown(c.Request().Context(), req.Markdown, req.Options)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, pdf, "document.pdf", contentTypePDF)
}

// ImagesToPDF packs uploaded images into one PDF, one page per image
// @Summary Combine images into a PDF
// @Tags Convert
// @Accept multipart/form-data
// @Param files formData file true "Images, in page order"
// @Router /convert/images-to-pdf [post]
func (serverHandler *ServerHandler) ImagesToPDF(c echo.Context) error {
	images, err := readUploads(c, "files", serverHandler.ServerConfig.MaxFiles)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	pdf, err := serverHandler.PDF.ImagesToPDF(images)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	Logger.Info("Packed images into PDF", "images", len(images))
	return sendFileDownload(c, pdf, "images.pdf", contentTypePDF)
}

// ConvertPDFA converts an uploaded PDF to PDF/A
// @Summary Convert a PDF to PDF/A
// @Tags Convert
// @Router /convert/pdf-to-pdfa [post]
func (serverHandler *ServerHandler) ConvertPDFA(c echo.Context) error {
	fileName, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	pdf, err := serverHandler.Renderer.ConvertPDFA(c.Request().Context(), fileName, data)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, pdf, suffixedPDFName(fileName, "-pdfa"), contentTypePDF)
}

// suffixedPDFName turns report.pdf into report<suffix>.pdf
func suffixedPDFName(name, suffix string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + suffix + ".pdf"
}
