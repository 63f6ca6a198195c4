package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP   string
	ListenAddrPort string

	// Renderer
	RendererBackend string
	GotenbergURL    string
	RendererTimeout time.Duration
	PDFAFormat      string
	ChromePath      string
	ChromeNoSandbox bool

	// PageRenderer picks the rasteriser used for PDF to image
	PageRenderer string

	// Limits
	MaxUploadSize uint64 // bytes per request
	MaxFiles      int    // per images-to-pdf or merge request

	CORSOrigins []string
}

const (
	defaultMaxUploadSize = 100 * humanize.MByte
	defaultMaxFiles      = 50
)

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvBytes reads a size such as "100MB" or "512KiB"
func getEnvBytes(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := humanize.ParseBytes(value)
	if err != nil || n == 0 {
		return defaultValue
	}
	return n
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	serverConfigLive := Load(logger)

	fmt.Println("\n========================================")
	fmt.Println("   gopdfapi - Document Conversion API")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Renderer: %s", serverConfigLive.RendererBackend)
	if serverConfigLive.RendererBackend == "gotenberg" {
		fmt.Printf(" at %s", serverConfigLive.GotenbergURL)
	}
	fmt.Printf("\nUpload limit: %s\n", humanize.Bytes(serverConfigLive.MaxUploadSize))
	fmt.Println("Initializing...")

	return serverConfigLive, logger
}

// Load reads the server settings from the environment
func Load(logger *slog.Logger) ServerConfig {
	serverConfigLive := ServerConfig{}

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Renderer configuration
	serverConfigLive.RendererBackend = strings.ToLower(getEnv("RENDERER_BACKEND", "gotenberg"))
	if serverConfigLive.RendererBackend != "gotenberg" && serverConfigLive.RendererBackend != "chromium" {
		logger.Warn("Unknown renderer backend, using gotenberg", "backend", serverConfigLive.RendererBackend)
		serverConfigLive.RendererBackend = "gotenberg"
	}
	serverConfigLive.GotenbergURL = strings.TrimRight(getEnv("GOTENBERG_URL", "http://localhost:3000"), "/")
	serverConfigLive.RendererTimeout = time.Duration(getEnvInt("RENDERER_TIMEOUT", 120)) * time.Second
	if serverConfigLive.RendererTimeout <= 0 {
		logger.Warn("RENDERER_TIMEOUT must be positive, using 120s")
		serverConfigLive.RendererTimeout = 120 * time.Second
	}
	serverConfigLive.PDFAFormat = getEnv("PDFA_FORMAT", "PDF/A-2b")

	chromePath := getEnv("CHROME_PATH", "")
	if chromePath != "" {
		if err := checkExecutables(chromePath, logger); err != nil {
			logger.Warn("Chrome executable not found, letting chromedp search the PATH", "path", chromePath, "error", err)
			chromePath = ""
		}
	}
	serverConfigLive.ChromePath = chromePath
	serverConfigLive.ChromeNoSandbox = getEnvBool("CHROME_NO_SANDBOX", false)

	logger.Info("Renderer configuration loaded",
		"backend", serverConfigLive.RendererBackend,
		"gotenbergURL", serverConfigLive.GotenbergURL,
		"timeout", serverConfigLive.RendererTimeout)

	serverConfigLive.PageRenderer = strings.ToLower(getEnv("PAGE_RENDERER", "pdfium"))

	// Limits
	serverConfigLive.MaxUploadSize = getEnvBytes("MAX_UPLOAD_SIZE", defaultMaxUploadSize)
	serverConfigLive.MaxFiles = getEnvInt("MAX_FILES", defaultMaxFiles)
	if serverConfigLive.MaxFiles < 2 {
		logger.Warn("MAX_FILES must allow at least 2 files, using default", "value", serverConfigLive.MaxFiles)
		serverConfigLive.MaxFiles = defaultMaxFiles
	}

	serverConfigLive.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	return serverConfigLive
}

// UploadLimit is the body limit in the form echo's BodyLimit middleware expects
func (c ServerConfig) UploadLimit() string {
	return fmt.Sprintf("%dB", c.MaxUploadSize)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "gopdfapi.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

// checkExecutables verifies that an executable exists at the given path
func checkExecutables(path string, logger *slog.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		logger.Error("Cannot find executable at location specified", "path", path)
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	logger.Debug("Executable found", "path", path)
	return nil
}
