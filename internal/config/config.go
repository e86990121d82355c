package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	OCR    OCRConfig
	Queue  QueueConfig
	Export ExportConfig
	S3     S3Config
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxUploadSizeMB int64         `mapstructure:"max_upload_size_mb"`
	Environment     string        `mapstructure:"environment"`
}

// DBConfig holds SQLite store settings.
type DBConfig struct {
	Path    string `mapstructure:"path"`
	MaxOpen int    `mapstructure:"max_open"`
	MaxIdle int    `mapstructure:"max_idle"`
}

// DSN returns the sqlite3 connection string.
func (d *DBConfig) DSN() string {
	return d.Path + "?_busy_timeout=5000&_foreign_keys=on"
}

// OCRConfig holds text recognition settings. Tesseract and Pdftoppm are
// binary names or absolute paths; bundled installs point these at the
// shipped binaries instead of relying on PATH.
type OCRConfig struct {
	Engine      string `mapstructure:"engine"`
	Tesseract   string `mapstructure:"tesseract"`
	Pdftoppm    string `mapstructure:"pdftoppm"`
	Language    string `mapstructure:"language"`
	DPI         int    `mapstructure:"dpi"`
	PSM         int    `mapstructure:"psm"`
	OEM         int    `mapstructure:"oem"`
	MaxPages    int    `mapstructure:"max_pages"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// QueueConfig holds batch worker settings.
type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	SheetName string `mapstructure:"sheet_name"`
	BaseName  string `mapstructure:"base_name"`
}

// S3Config holds AWS S3 settings for remote inputs and export uploads.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the TICKETSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TICKETSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.max_upload_size_mb", 50)
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.path", "ticketscan.db")
	v.SetDefault("db.max_open", 1)
	v.SetDefault("db.max_idle", 1)

	// OCR defaults
	v.SetDefault("ocr.engine", "exec")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.oem", 0)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.timeout_secs", 120)

	// Queue defaults
	v.SetDefault("queue.concurrency", 4)

	// Export defaults
	v.SetDefault("export.sheet_name", "Tickets")
	v.SetDefault("export.base_name", "Ticket_Data_Export")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "TICKETSCAN_SERVER_PORT",
		"server.read_timeout":       "TICKETSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "TICKETSCAN_SERVER_WRITE_TIMEOUT",
		"server.max_upload_size_mb": "TICKETSCAN_SERVER_MAX_UPLOAD_SIZE_MB",
		"server.environment":        "TICKETSCAN_SERVER_ENVIRONMENT",
		"db.path":                   "TICKETSCAN_DB_PATH",
		"db.max_open":               "TICKETSCAN_DB_MAX_OPEN",
		"db.max_idle":               "TICKETSCAN_DB_MAX_IDLE",
		"ocr.engine":                "TICKETSCAN_OCR_ENGINE",
		"ocr.tesseract":             "TICKETSCAN_OCR_TESSERACT",
		"ocr.pdftoppm":              "TICKETSCAN_OCR_PDFTOPPM",
		"ocr.language":              "TICKETSCAN_OCR_LANGUAGE",
		"ocr.dpi":                   "TICKETSCAN_OCR_DPI",
		"ocr.psm":                   "TICKETSCAN_OCR_PSM",
		"ocr.oem":                   "TICKETSCAN_OCR_OEM",
		"ocr.max_pages":             "TICKETSCAN_OCR_MAX_PAGES",
		"ocr.timeout_secs":          "TICKETSCAN_OCR_TIMEOUT_SECS",
		"queue.concurrency":         "TICKETSCAN_QUEUE_CONCURRENCY",
		"export.sheet_name":         "TICKETSCAN_EXPORT_SHEET_NAME",
		"export.base_name":          "TICKETSCAN_EXPORT_BASE_NAME",
		"s3.region":                 "TICKETSCAN_S3_REGION",
		"s3.bucket":                 "TICKETSCAN_S3_BUCKET",
		"s3.endpoint":               "TICKETSCAN_S3_ENDPOINT",
		"s3.access_key":             "TICKETSCAN_S3_ACCESS_KEY",
		"s3.secret_key":             "TICKETSCAN_S3_SECRET_KEY",
		"log.level":                 "TICKETSCAN_LOG_LEVEL",
		"log.format":                "TICKETSCAN_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TICKETSCAN_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TICKETSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		MaxUploadSizeMB: v.GetInt64("server.max_upload_size_mb"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Path:    v.GetString("db.path"),
		MaxOpen: v.GetInt("db.max_open"),
		MaxIdle: v.GetInt("db.max_idle"),
	}
	cfg.OCR = OCRConfig{
		Engine:      v.GetString("ocr.engine"),
		Tesseract:   v.GetString("ocr.tesseract"),
		Pdftoppm:    v.GetString("ocr.pdftoppm"),
		Language:    v.GetString("ocr.language"),
		DPI:         v.GetInt("ocr.dpi"),
		PSM:         v.GetInt("ocr.psm"),
		OEM:         v.GetInt("ocr.oem"),
		MaxPages:    v.GetInt("ocr.max_pages"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}
	cfg.Queue = QueueConfig{
		Concurrency: v.GetInt("queue.concurrency"),
	}
	cfg.Export = ExportConfig{
		SheetName: v.GetString("export.sheet_name"),
		BaseName:  v.GetString("export.base_name"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
