package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string
	LogMode   string

	DBDriver string
	DBDSN    string

	BlobDriver   string // fs|gcs
	BlobBasePath string // for fs
	FilesURL     string // public prefix the fs store serves under

	GCSBucket          string
	GCSCDNDomain       string
	GCSCredentialsFile string
	GCSEmulatorHost    string

	AuthSecret     string
	SecureCookies  bool
	MaxUploadBytes int64

	CORSOrigins []string

	CertFontPath string // TTF for certificate text; empty uses Go Regular

	AdminEmail    string
	AdminPassword string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	pub := strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/")
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: pub,
		LogMode:   envOr("LOG_MODE", string(mode)),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		BlobDriver:   envOr("BLOB_DRIVER", "fs"),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),
		FilesURL:     envOr("FILES_URL", pub+"/files"),

		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCDNDomain:       os.Getenv("GCS_CDN_DOMAIN"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		GCSEmulatorHost:    os.Getenv("STORAGE_EMULATOR_HOST"),

		AuthSecret:     envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		SecureCookies:  envBool("SECURE_COOKIES", mode == ModeOnline),
		MaxUploadBytes: int64(envInt("MAX_UPLOAD_MB", 10)) << 20,

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		CertFontPath: os.Getenv("CERT_FONT"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: invalid %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
