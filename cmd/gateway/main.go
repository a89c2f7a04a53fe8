package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/mindengage-courses/internal/api/http"
	"github.com/mind-engage/mindengage-courses/internal/apierr"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/config"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/profile"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
	"github.com/mind-engage/mindengage-courses/internal/storage"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.ParseDriver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "error", err)
	}
	defer dbh.Close()

	profiles := profile.NewSQLStore(dbh)
	courses := catalog.NewSQLStore(dbh)
	quizzes := quiz.NewSQLStore(dbh)
	certs := certificate.NewSQLStore(dbh)

	if err := seedAdmin(ctx, profiles, cfg); err != nil {
		log.Fatal("admin seed failed", "error", err)
	}

	// --- Blobs ---
	var (
		blobs storage.BlobStore
		files http.Handler
	)
	switch cfg.BlobDriver {
	case "gcs":
		gcs, err := storage.NewGCSStore(context.Background(), storage.GCSConfig{
			Bucket:          cfg.GCSBucket,
			CDNDomain:       cfg.GCSCDNDomain,
			CredentialsFile: cfg.GCSCredentialsFile,
			EmulatorHost:    cfg.GCSEmulatorHost,
		})
		if err != nil {
			log.Fatal("gcs store", "error", err)
		}
		defer gcs.Close()
		blobs = gcs
	default:
		fs, err := storage.NewFSStore(cfg.BlobBasePath, cfg.FilesURL)
		if err != nil {
			log.Fatal("blob store", "error", err)
		}
		blobs, files = fs, fs.Handler()
	}

	renderer, err := certificate.NewRenderer(cfg.CertFontPath)
	if err != nil {
		log.Fatal("certificate font", "error", err)
	}
	issuer := certificate.NewIssuer(certs, blobs, renderer, courses, profiles, log)

	router := api.NewRouter(api.Deps{
		Auth:        auth.NewAuthService(cfg.AuthSecret),
		Cookies:     auth.CookieOptions{Secure: cfg.SecureCookies},
		Users:       profiles,
		Profiles:    profiles,
		Courses:     courses,
		Quizzes:     quizzes,
		Attempts:    quizzes,
		Templates:   certs,
		Certs:       certs,
		Issuer:      issuer,
		Uploads:     storage.NewGateway(blobs, cfg.MaxUploadBytes),
		Events:      syncx.NewEventRepo(dbh),
		Files:       files,
		Ready:       dbh.PingContext,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "blobs", cfg.BlobDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

// seedAdmin creates the ADMIN_EMAIL profile on first start.
func seedAdmin(ctx context.Context, profiles *profile.SQLStore, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := profiles.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil || !errors.Is(err, apierr.ErrNotFound) {
		return err
	}
	_, err = profiles.Create(ctx, profile.Profile{
		Email:  cfg.AdminEmail,
		Role:   rbac.RoleAdmin,
		Status: rbac.StatusActive,
	}, cfg.AdminPassword)
	return err
}
