package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// DefaultPDFAFormat is requested when no PDF/A flavour is configured.
const DefaultPDFAFormat = "PDF/A-2b"

// markdownWrapper is the index.html Gotenberg needs alongside a Markdown file.
const markdownWrapper = `<!doctype html>
<html>
  <head><meta charset="utf-8"><title>Document</title></head>
  <body>{{ toHTML "content.md" }}</body>
</html>`

// GotenbergClient talks to a Gotenberg server.
type GotenbergClient struct {
	BaseURL    string
	PDFAFormat string
	HTTPClient *http.Client
}

// NewGotenbergClient creates a client; a zero timeout falls back to two minutes.
func NewGotenbergClient(baseURL string, timeout time.Duration, pdfaFormat string) *GotenbergClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if pdfaFormat == "" {
		pdfaFormat = DefaultPDFAFormat
	}
	return &GotenbergClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		PDFAFormat: pdfaFormat,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *GotenbergClient) Name() string { return BackendGotenberg }

func (g *GotenbergClient) Close() error { return nil }

type formFile struct {
	name string
	data []byte
}

// ConvertOffice sends an office document to the LibreOffice route.
func (g *GotenbergClient) ConvertOffice(ctx context.Context, fileName string, data []byte, opts *ConversionOptions) ([]byte, error) {
	fields := pageFields(opts)
	if opts != nil {
		if opts.NativePageRanges != "" {
			fields["nativePageRanges"] = opts.NativePageRanges
		}
		setBool(fields, "exportFormFields", opts.ExportFormFields)
		setBool(fields, "singlePageSheets", opts.SinglePageSheets)
		setBool(fields, "losslessImageCompression", opts.LosslessImageCompression)
		setBool(fields, "reduceImageResolution", opts.ReduceImageResolution)
		if opts.ImageQuality != nil {
			fields["quality"] = strconv.Itoa(*opts.ImageQuality)
		}
		if opts.MaxImageResolution != 0 {
			fields["maxImageResolution"] = strconv.Itoa(int(opts.MaxImageResolution))
		}
	}
	return g.post(ctx, "/forms/libreoffice/convert", []formFile{{name: fileName, data: data}}, fields)
}

// ConvertHTML renders an HTML document with Chromium.
func (g *GotenbergClient) ConvertHTML(ctx context.Context, html string, opts *ConversionOptions) ([]byte, error) {
	return g.post(ctx, "/forms/chromium/convert/html", []formFile{{name: "index.html", data: []byte(html)}}, chromiumFields(opts))
}

// ConvertURL renders a remote page with Chromium.
func (g *GotenbergClient) ConvertURL(ctx context.Context, url string, opts *ConversionOptions) ([]byte, error) {
	fields := chromiumFields(opts)
	fields["url"] = url
	return g.post(ctx, "/forms/chromium/convert/url", nil, fields)
}

// ConvertMarkdown renders Markdown through an HTML wrapper.
func (g *GotenbergClient) ConvertMarkdown(ctx context.Context, markdown string, opts *ConversionOptions) ([]byte, error) {
	files := []formFile{
		{name: "index.html", data: []byte(markdownWrapper)},
		{name: "content.md", data: []byte(markdown)},
	}
	return g.post(ctx, "/forms/chromium/convert/markdown", files, chromiumFields(opts))
}

// ConvertPDFA converts a PDF to the configured PDF/A flavour.
func (g *GotenbergClient) ConvertPDFA(ctx context.Context, fileName string, data []byte) ([]byte, error) {
	fields := map[string]string{"pdfa": g.PDFAFormat}
	return g.post(ctx, "/forms/pdfengines/convert", []formFile{{name: fileName, data: data}}, fields)
}

// Health checks Gotenberg's health route.
func (g *GotenbergClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Gotenberg: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("Gotenberg health returned status %d", resp.StatusCode)
	}
	return nil
}

func (g *GotenbergClient) post(ctx context.Context, route string, files []formFile, fields map[string]string) ([]byte, error) {
	// Create multipart form data
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(f.data); err != nil {
			return nil, fmt.Errorf("failed to copy file data: %w", err)
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+route, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call Gotenberg: %w", apierr.ErrRemoteRender, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: Gotenberg returned error status %d: %s", apierr.ErrRemoteRender, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read Gotenberg response: %w", apierr.ErrRemoteRender, err)
	}
	Logger.Debug("Gotenberg conversion complete", "route", route, "size", humanize.Bytes(uint64(len(pdf))), "duration", time.Since(start))
	return pdf, nil
}

// pageFields holds the paper, orientation and margin fields shared by every route.
func pageFields(opts *ConversionOptions) map[string]string {
	fields := map[string]string{}
	if opts == nil {
		return fields
	}
	if paper, ok := opts.Paper(); ok {
		fields["paperWidth"] = formatFloat(paper.Width)
		fields["paperHeight"] = formatFloat(paper.Height)
	}
	if opts.IsLandscape() {
		fields["landscape"] = "true"
	}
	if opts.Margins != nil {
		top, bottom, left, right := opts.Margins.MarginInches()
		fields["marginTop"] = formatFloat(top)
		fields["marginBottom"] = formatFloat(bottom)
		fields["marginLeft"] = formatFloat(left)
		fields["marginRight"] = formatFloat(right)
	}
	return fields
}

func chromiumFields(opts *ConversionOptions) map[string]string {
	fields := pageFields(opts)
	if opts != nil {
		if opts.Scale != nil {
			fields["scale"] = formatFloat(*opts.Scale)
		}
		if opts.NativePageRanges != "" {
			fields["nativePageRanges"] = opts.NativePageRanges
		}
	}
	return fields
}

func setBool(fields map[string]string, key string, v *bool) {
	if v != nil {
		fields[key] = strconv.FormatBool(*v)
	}
}
