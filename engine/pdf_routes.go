package engine

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"github.com/drummonds/gopdfapi/engine/apierr"
	"github.com/drummonds/gopdfapi/engine/pagerange"
	"github.com/drummonds/gopdfapi/engine/pdfops"
	"github.com/drummonds/gopdfapi/engine/pdfrenderer"
)

const (
	minImageDPI = 36
	maxImageDPI = 600
)

type InfoResponse struct {
	Success bool         `json:"success"`
	Info    *pdfops.Info `json:"info"`
}

type TextResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
}

// MergePDFs concatenates the uploaded PDFs in upload order
// @Summary Merge PDFs
// @Tags PDF
// @Accept multipart/form-data
// @Param files formData file true "PDFs, at least two"
// @Router /pdf/merge [post]
func (serverHandler *ServerHandler) MergePDFs(c echo.Context) error {
	docs, err := readUploads(c, "files", serverHandler.ServerConfig.MaxFiles)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	merged, err := serverHandler.PDF.Merge(docs)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, merged, "merged.pdf", contentTypePDF)
}

// SplitPDF returns one PDF per page range, zipped when there is more than one
// @Summary Split a PDF by page ranges
// @Tags PDF
// @Accept multipart/form-data
// @Param file formData file true "PDF"
// @Param request formData string true "{\"pageRanges\": [\"1-3\", \"4\"]}"
// @Router /pdf/split [post]
func (serverHandler *ServerHandler) SplitPDF(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	var req pdfops.SplitRequest
	if err := decodeFormJSON(c, "request", true, &req); err != nil {
		return serverHandler.fail(c, err)
	}

	parts, err := serverHandler.PDF.Split(data, req)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	if len(parts) == 1 {
		return sendFileDownload(c, parts[0], "split.pdf", contentTypePDF)
	}

	entries := make([]archiveEntry, len(parts))
	for i, part := range parts {
		entries[i] = archiveEntry{Name: fmt.Sprintf("part-%d.pdf", i+1), Data: part}
	}
	archive, err := zipEntries(entries)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, archive, "split-pdfs.zip", contentTypeZip)
}

// RotatePDF rotates the selected pages
// @Summary Rotate pages
// @Tags PDF
// @Param request formData string true "{\"angle\": \"90\", \"pages\": \"all\"}"
// @Router /pdf/rotate [post]
func (serverHandler *ServerHandler) RotatePDF(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	var req pdfops.RotateRequest
	if err := decodeFormJSON(c, "request", true, &req); err != nil {
		return serverHandler.fail(c, err)
	}
	rotated, err := serverHandler.PDF.Rotate(data, req)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, rotated, "rotated.pdf", contentTypePDF)
}

// CompressPDF rewrites the file with object and xref streams
// @Summary Compress a PDF
// @Tags PDF
// @Router /pdf/compress [post]
func (serverHandler *ServerHandler) CompressPDF(c echo.Context) error {
	fileName, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	compressed, err := serverHandler.PDF.Compress(data)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, compressed, suffixedPDFName(fileName, "-compressed"), contentTypePDF)
}

// EncryptPDF password protects the upload with AES-256
// @Summary Encrypt a PDF
// @Tags PDF
// @Param request formData string true "{\"userPassword\": \"x\", \"ownerPassword\": \"y\", \"permissions\": {\"print\": true}}"
// @Router /pdf/encrypt [post]
func (serverHandler *ServerHandler) EncryptPDF(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	var req pdfops.EncryptRequest
	if err := decodeFormJSON(c, "request", true, &req); err != nil {
		return serverHandler.fail(c, err)
	}
	if req.UserPassword == "" {
		return serverHandler.fail(c, apierr.Missing("User password is required"))
	}
	encrypted, err := serverHandler.PDF.Encrypt(data, req)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, encrypted, "encrypted.pdf", contentTypePDF)
}

// DecryptPDF removes password protection
// @Summary Decrypt a PDF
// @Tags PDF
// @Param password formData string true "User or owner password"
// @Router /pdf/decrypt [post]
func (serverHandler *ServerHandler) DecryptPDF(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	decrypted, err := serverHandler.PDF.Decrypt(data, c.FormValue("password"))
	if err != nil {
		if errors.Is(err, apierr.ErrInvalidPassword) {
			Logger.Info("Decrypt attempted with wrong password", "requestID", c.Response().Header().Get(echo.HeaderXRequestID))
		}
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, decrypted, "decrypted.pdf", contentTypePDF)
}

// WatermarkPDF stamps text on every page
// @Summary Watermark a PDF
// @Tags PDF
// @Param request formData string true "{\"text\": \"DRAFT\", \"options\": {\"opacity\": 0.3}}"
// @Router /pdf/watermark [post]
func (serverHandler *ServerHandler) WatermarkPDF(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	var req pdfops.WatermarkRequest
	if err := decodeFormJSON(c, "request", true, &req); err != nil {
		return serverHandler.fail(c, err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return serverHandler.fail(c, apierr.Missing("Watermark text is required"))
	}
	watermarked, err := serverHandler.PDF.Watermark(data, req)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return sendFileDownload(c, watermarked, "watermarked.pdf", contentTypePDF)
}

// PDFInfo returns page count, page size and metadata
// @Summary PDF metadata
// @Tags PDF
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /pdf/info [post]
func (serverHandler *ServerHandler) PDFInfo(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	info, err := serverHandler.PDF.Info(data)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return c.JSON(http.StatusOK, InfoResponse{Success: true, Info: info})
}

// ExtractText returns the plain text of every page
// @Summary Extract text
// @Tags PDF
// @Produce json
// @Success 200 {object} TextResponse
// @Router /pdf/extract-text [post]
func (serverHandler *ServerHandler) ExtractText(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	result, err := serverHandler.PDF.ExtractText(data)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	return c.JSON(http.StatusOK, TextResponse{Success: true, Text: result.Text, Pages: result.Pages})
}

// PDFToImages rasterises the selected pages
// @Summary Render pages as images
// @Tags PDF
// @Param format formData string false "png or jpg"
// @Param dpi formData int false "36 to 600, default 150"
// @Param pages formData string false "Page range, default all"
// @Router /pdf/to-images [post]
func (serverHandler *ServerHandler) PDFToImages(c echo.Context) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return serverHandler.fail(c, err)
	}
	if serverHandler.Pages == nil {
		return serverHandler.fail(c, errors.New("no page renderer is available on this server"))
	}

	format, err := pdfrenderer.ParseFormat(c.FormValue("format"))
	if err != nil {
		return serverHandler.fail(c, fmt.Errorf("%w: %w", apierr.ErrInvalidOption, err))
	}
	dpi, err := parseDPI(c.FormValue("dpi"))
	if err != nil {
		return serverHandler.fail(c, err)
	}
	selection := c.FormValue("pages")
	// syntax check before paying for a page count
	if _, err := pagerange.Selection(selection, 0); err != nil {
		return serverHandler.fail(c, err)
	}

	total, err := serverHandler.Pages.PageCount(data)
	if err != nil {
		return serverHandler.fail(c, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, err))
	}
	indices, err := pagerange.Selection(selection, total)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	if len(indices) == 0 {
		return serverHandler.fail(c, fmt.Errorf("%w: %q selects no pages of %d", apierr.ErrInvalidPageRange, selection, total))
	}
	indices = uniquePages(indices)

	images, err := serverHandler.Pages.RenderPages(data, indices, dpi)
	if err != nil {
		return serverHandler.fail(c, err)
	}

	entries := make([]archiveEntry, len(images))
	for i, img := range images {
		var buf bytes.Buffer
		if err := pdfrenderer.Encode(&buf, img, format); err != nil {
			return serverHandler.fail(c, err)
		}
		entries[i] = archiveEntry{Name: fmt.Sprintf("page-%d.%s", indices[i]+1, format), Data: buf.Bytes()}
	}

	if len(entries) == 1 {
		return sendFileDownload(c, entries[0].Data, entries[0].Name, pdfrenderer.ContentType(format))
	}
	archive, err := zipEntries(entries)
	if err != nil {
		return serverHandler.fail(c, err)
	}
	Logger.Info("Rendered pages", "pages", len(entries), "dpi", dpi, "size", humanize.Bytes(uint64(len(archive))))
	return sendFileDownload(c, archive, "pages.zip", contentTypeZip)
}

// uniquePages drops repeated page indices, keeping the first occurrence of each
func uniquePages(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	unique := indices[:0:0]
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			unique = append(unique, i)
		}
	}
	return unique
}

func parseDPI(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pdfrenderer.DefaultDPI, nil
	}
	dpi, err := strconv.Atoi(raw)
	if err != nil || dpi < minImageDPI || dpi > maxImageDPI {
		return 0, fmt.Errorf("%w: dpi must be a whole number between %d and %d, got %q", apierr.ErrInvalidOption, minImageDPI, maxImageDPI, raw)
	}
	return dpi, nil
}
