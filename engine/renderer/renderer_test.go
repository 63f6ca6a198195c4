package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// capturedRequest records what the fake Gotenberg received.
type capturedRequest struct {
	path   string
	fields map[string]string
	files  map[string]string
}

func fakeGotenberg(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		if r.Method == http.MethodPost {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				t.Errorf("failed to parse multipart form: %v", err)
			}
			captured.fields = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				captured.fields[k] = v[0]
			}
			captured.files = map[string]string{}
			for _, fh := range r.MultipartForm.File["files"] {
				f, _ := fh.Open()
				data, _ := io.ReadAll(f)
				f.Close()
				captured.files[fh.Filename] = string(data)
			}
		}
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestConvertOfficeForwardsOptions(t *testing.T) {
	srv, got := fakeGotenberg(t, http.StatusOK, "%PDF-1.7 fake")
	client := NewGotenbergClient(srv.URL+"/", time.Second, "")

	var opts ConversionOptions
	raw := `{"paperSize":"Letter","orientation":"landscape","margins":{"top":1,"left":0.5},
		"imageQuality":80,"maxImageResolution":"300","singlePageSheets":true,"nativePageRanges":"1-2"}`
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		t.Fatalf("unmarshal options: %v", err)
	}

	pdf, err := client.ConvertOffice(context.Background(), "report.docx", []byte("docx bytes"), &opts)
	if err != nil {
		t.Fatalf("ConvertOffice failed: %v", err)
	}
	if string(pdf) != "%PDF-1.7 fake" {
		t.Errorf("unexpected body %q", pdf)
	}
	if got.path != "/forms/libreoffice/convert" {
		t.Errorf("path = %s", got.path)
	}
	if got.files["report.docx"] != "docx bytes" {
		t.Errorf("file not forwarded: %v", got.files)
	}

	want := map[string]string{
		"paperWidth":         "8.5",
		"paperHeight":        "11",
		"landscape":          "true",
		"marginTop":          "1",
		"marginBottom":       "0",
		"marginLeft":         "0.5",
		"marginRight":        "0",
		"quality":            "80",
		"maxImageResolution": "300",
		"singlePageSheets":   "true",
		"nativePageRanges":   "1-2",
	}
	for k, v := range want {
		if got.fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, got.fields[k], v)
		}
	}
	if _, ok := got.fields["losslessImageCompression"]; ok {
		t.Error("unset options must not be forwarded")
	}
}

func TestConvertHTMLAndURLRoutes(t *testing.T) {
	srv, got := fakeGotenberg(t, http.StatusOK, "%PDF")
	client := NewGotenbergClient(srv.URL, time.Second, "")
	scale := 0.8

	if _, err := client.ConvertHTML(context.Background(), "<h1>hi</h1>", &ConversionOptions{Landscape: true, Scale: &scale}); err != nil {
		t.Fatalf("ConvertHTML failed: %v", err)
	}
	if got.path != "/forms/chromium/convert/html" || got.files["index.html"] != "<h1>hi</h1>" {
		t.Errorf("html request wrong: %s %v", got.path, got.files)
	}
	if got.fields["landscape"] != "true" || got.fields["scale"] != "0.8" {
		t.Errorf("html fields wrong: %v", got.fields)
	}
	if _, ok := got.fields["marginTop"]; ok {
		t.Error("margins should only be sent when requested")
	}

	if _, err := client.ConvertURL(context.Background(), "https://example.com", nil); err != nil {
		t.Fatalf("ConvertURL failed: %v", err)
	}
	if got.path != "/forms/chromium/convert/url" || got.fields["url"] != "https://example.com" {
		t.Errorf("url request wrong: %s %v", got.path, got.fields)
	}
}

func TestConvertMarkdownSendsWrapper(t *testing.T) {
	srv, got := fakeGotenberg(t, http.StatusOK, "%PDF")
	client := NewGotenbergClient(srv.URL, time.Second, "")

	if _, err := client.ConvertMarkdown(context.Background(), "# Title", nil); err != nil {
		t.Fatalf("ConvertMarkdown failed: %v", err)
	}
	if got.path != "/forms/chromium/convert/markdown" {
		t.Errorf("path = %s", got.path)
	}
	if got.files["content.md"] != "# Title" {
		t.Errorf("markdown not forwarded: %v", got.files)
	}
	if !strings.Contains(got.files["index.html"], `toHTML "content.md"`) {
		t.Errorf("wrapper missing toHTML call: %q", got.files["index.html"])
	}
}

func TestConvertPDFA(t *testing.T) {
	srv, got := fakeGotenberg(t, http.StatusOK, "%PDF")
	client := NewGotenbergClient(srv.URL, time.Second, "")

	if _, err := client.ConvertPDFA(context.Background(), "in.pdf", []byte("%PDF")); err != nil {
		t.Fatalf("ConvertPDFA failed: %v", err)
	}
	if got.path != "/forms/pdfengines/convert" || got.fields["pdfa"] != DefaultPDFAFormat {
		t.Errorf("pdfa request wrong: %s %v", got.path, got.fields)
	}
}

func TestRemoteErrorPassesMessageThrough(t *testing.T) {
	srv, _ := fakeGotenberg(t, http.StatusBadRequest, "Invalid form data: no files")
	client := NewGotenbergClient(srv.URL, time.Second, "")

	_, err := client.ConvertHTML(context.Background(), "<p>x</p>", nil)
	if !errors.Is(err, apierr.ErrRemoteRender) {
		t.Fatalf("expected ErrRemoteRender, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid form data: no files") {
		t.Errorf("remote message lost: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, got := fakeGotenberg(t, http.StatusOK, `{"status":"up"}`)
	client := NewGotenbergClient(srv.URL, time.Second, "")
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
	if got.path != "/health" {
		t.Errorf("path = %s", got.path)
	}

	unreachable := NewGotenbergClient("http://127.0.0.1:1", 500*time.Millisecond, "")
	if err := unreachable.Health(context.Background()); err == nil {
		t.Error("expected error for unreachable renderer")
	}
}

func TestOptionsValidate(t *testing.T) {
	quality := 0
	negative := -1.0
	bad := []ConversionOptions{
		{PaperSize: "A5"},
		{Orientation: "sideways"},
		{ImageQuality: &quality},
		{MaxImageResolution: 200},
		{NativePageRanges: "1-x"},
		{Scale: &negative},
		{Margins: &Margins{Top: &negative}},
	}
	for i, opts := range bad {
		if err := opts.Validate(); !errors.Is(err, apierr.ErrInvalidOption) {
			t.Errorf("case %d: expected ErrInvalidOption, got %v", i, err)
		}
	}

	good := ConversionOptions{PaperSize: "A3", Orientation: "portrait", MaxImageResolution: 1200, NativePageRanges: "1-3,5"}
	if err := good.Validate(); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}
	if err := (*ConversionOptions)(nil).Validate(); err != nil {
		t.Errorf("nil options rejected: %v", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	r, err := New(Config{GotenbergURL: "http://localhost:3000"})
	if err != nil || r.Name() != BackendGotenberg {
		t.Errorf("default backend = %v, %v", r, err)
	}
	r, err = New(Config{Backend: BackendChromium})
	if err != nil || r.Name() != BackendChromium {
		t.Errorf("chromium backend = %v, %v", r, err)
	}
	if _, err := New(Config{Backend: "wkhtmltopdf"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestChromiumMarkdownToHTML(t *testing.T) {
	c := NewChromiumRenderer("", false, time.Second)
	html, err := c.MarkdownToHTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") || !strings.Contains(html, "<table>") {
		t.Errorf("unexpected html %q", html)
	}
}

func TestChromiumRejectsOffice(t *testing.T) {
	c := NewChromiumRenderer("", false, time.Second)
	if _, err := c.ConvertOffice(context.Background(), "a.docx", nil, nil); !errors.Is(err, apierr.ErrRemoteRender) {
		t.Errorf("expected ErrRemoteRender, got %v", err)
	}
}

func TestChromiumPrintsHTML(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping headless browser test in short mode")
	}
	c := NewChromiumRenderer("", true, 30*time.Second)
	defer c.Close()
	if err := c.Health(context.Background()); err != nil {
		t.Skipf("no browser available: %v", err)
	}

	pdf, err := c.ConvertHTML(context.Background(), "<h1>Hello</h1>", &ConversionOptions{PaperSize: "Letter"})
	if err != nil {
		t.Fatalf("ConvertHTML failed: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("output is not a PDF")
	}
}
