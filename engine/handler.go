package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/gopdfapi/config"
	"github.com/drummonds/gopdfapi/engine/apierr"
	"github.com/drummonds/gopdfapi/engine/pdfops"
	"github.com/drummonds/gopdfapi/engine/pdfrenderer"
	"github.com/drummonds/gopdfapi/engine/renderer"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

const (
	contentTypePDF = "application/pdf"
	contentTypeZip = "application/zip"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	// Renderer handles office, HTML, URL, Markdown and PDF/A conversions
	Renderer renderer.Renderer
	// PDF runs local transforms
	PDF *pdfops.Engine
	// Pages rasterises PDF pages, nil when no page renderer could be started
	Pages pdfrenderer.Renderer
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RegisterRoutes adds every API route to the handler's echo instance
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo

	e.GET("/ping", serverHandler.Ping)

	api := e.Group("/api")
	api.GET("/health", serverHandler.Health)
	api.GET("/formats", serverHandler.Formats)

	// Conversions
	api.POST("/convert/docx-to-pdf", serverHandler.ConvertOffice(wordExtensions))
	api.POST("/convert/xlsx-to-pdf", serverHandler.ConvertOffice(excelExtensions))
	api.POST("/convert/pptx-to-pdf", serverHandler.ConvertOffice(powerpointExtensions))
	api.POST("/convert/office-to-pdf", serverHandler.ConvertOffice(officeExtensions))
	api.POST("/convert/html-to-pdf", serverHandler.ConvertHTML)
	api.POST("/convert/url-to-pdf", serverHandler.ConvertURL)
	api.POST("/convert/markdown-to-pdf", serverHandler.ConvertMarkdown)
	api.POST("/convert/images-to-pdf", serverHandler.ImagesToPDF)
	api.POST("/convert/pdf-to-pdfa", serverHandler.ConvertPDFA)

	// PDF utilities
	api.POST("/pdf/merge", serverHandler.MergePDFs)
	api.POST("/pdf/split", serverHandler.SplitPDF)
	api.POST("/pdf/rotate", serverHandler.RotatePDF)
	api.POST("/pdf/compress", serverHandler.CompressPDF)
	api.POST("/pdf/encrypt", serverHandler.EncryptPDF)
	api.POST("/pdf/decrypt", serverHandler.DecryptPDF)
	api.POST("/pdf/watermark", serverHandler.WatermarkPDF)
	api.POST("/pdf/info", serverHandler.PDFInfo)
	api.POST("/pdf/extract-text", serverHandler.ExtractText)
	api.POST("/pdf/to-images", serverHandler.PDFToImages)
}

// HTTPErrorHandler renders framework errors on /api routes in the same envelope as handler failures
func (serverHandler *ServerHandler) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if code == http.StatusNotFound {
			message = "The requested API endpoint does not exist"
		}
		c.JSON(code, ErrorResponse{Success: false, Error: message})
		return
	}
	serverHandler.Echo.DefaultHTTPErrorHandler(err, c)
}

// fail logs err and writes the JSON error envelope with the status for its kind
func (serverHandler *ServerHandler) fail(c echo.Context, err error) error {
	status := apierr.StatusCode(err)
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if status < http.StatusInternalServerError {
		Logger.Warn("Rejected request", "path", c.Path(), "requestID", requestID, "error", err)
	} else {
		Logger.Error("Request failed", "path", c.Path(), "requestID", requestID, "error", err)
	}
	return c.JSON(status, ErrorResponse{Success: false, Error: err.Error()})
}

// sendFileDownload streams data back as an attachment
func sendFileDownload(c echo.Context, data []byte, fileName, contentType string) error {
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, safeFileName(fileName)))
	header.Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Blob(http.StatusOK, contentType, data)
}

func safeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}
	return name
}

// readUpload returns the name and content of a single uploaded file
func readUpload(c echo.Context, field string) (string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil, apierr.Missing("No file uploaded")
	}
	data, err := readFileHeader(fileHeader)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, data, nil
}

// readUploads returns every file uploaded under field, in upload order
func readUploads(c echo.Context, field string, max int) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File[field]) == 0 {
		return nil, apierr.Missing("No files uploaded")
	}
	headers := form.File[field]
	if max > 0 && len(headers) > max {
		return nil, fmt.Errorf("%w: too many files, at most %d are accepted", apierr.ErrInvalidOption, max)
	}

	files := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, data)
	}
	return files, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// decodeFormJSON decodes the JSON document in a multipart form field.
// An absent field is missing input when required and a no-op otherwise.
func decodeFormJSON(c echo.Context, field string, required bool, v any) error {
	raw := c.FormValue(field)
	if strings.TrimSpace(raw) == "" {
		if required {
			return apierr.Missing(fmt.Sprintf("The %s field is required", field))
		}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %w", apierr.ErrInvalidOption, field, err)
	}
	return nil
}

// decodeBody decodes a JSON request body
func decodeBody(c echo.Context, v any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.Missing("Request body is required")
		}
		return fmt.Errorf("%w: request body is not valid JSON: %w", apierr.ErrInvalidOption, err)
	}
	return nil
}
