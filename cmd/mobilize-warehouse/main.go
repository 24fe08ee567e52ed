// @title Mobilize Warehouse API
// @version 1.0
// @description Admin API for the Mobilize attendance ingest pipeline.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"

	"mobilizewarehouse/config"
	_ "mobilizewarehouse/docs"
	"mobilizewarehouse/internal/adapters/archive"
	"mobilizewarehouse/internal/adapters/auth"
	"mobilizewarehouse/internal/adapters/csvsink"
	"mobilizewarehouse/internal/adapters/email"
	"mobilizewarehouse/internal/adapters/kafkasink"
	"mobilizewarehouse/internal/adapters/mobilize"
	delivery "mobilizewarehouse/internal/delivery/http"
	"mobilizewarehouse/internal/delivery/http/controllers"
	"mobilizewarehouse/internal/domain"
	"mobilizewarehouse/internal/metrics"
	"mobilizewarehouse/internal/repository/postgres"
	"mobilizewarehouse/internal/services"
)

const (
	readTimeout     = 10 * time.Second
	idleTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	dbPingTimeout   = 5 * time.Second
	fetchTimeout    = 2 * time.Minute
)

func main() {
	once := flag.Bool("once", false, "run a single ingest and exit instead of serving the admin API")
	hashPassword := flag.Bool("hash-password", false, "read a password from stdin and print its bcrypt hash for ADMIN_PASSWORD_HASH")
	flag.Parse()

	if *hashPassword {
		if err := printPasswordHash(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := config.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *once); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func printPasswordHash() error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := auth.NewBcryptHasher(0).Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, once bool) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	fetcher := mobilize.NewHTTPFetcher(&http.Client{Timeout: fetchTimeout}, mobilize.Config{
		BaseURL:        cfg.MobilizeAPIURL,
		APIKey:         cfg.MobilizeAPIKey,
		OrganizationID: cfg.MobilizeOrganizationID,
		PageSize:       cfg.MobilizePageSize,
	}, logger)

	sinks := []domain.TableSink{csvsink.New(cfg.OutputDir)}

	var db *sql.DB
	if cfg.WarehouseEnabled() {
		var err error
		db, err = sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		sinks = append(sinks, postgres.NewWarehouseRepository(db, cfg.DBSchema))
	}

	if cfg.StreamEnabled() {
		kafkaWriter := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		defer func() {
			_ = kafkaWriter.Close()
		}()
		sinks = append(sinks, kafkasink.New(kafkaWriter, 0))
	}

	opts := services.IngestOptions{
		Observer:  recorder,
		ChunkSize: cfg.NormalizeChunks,
		Timeout:   cfg.IngestTimeout,
	}
	if db != nil {
		opts.Runs = postgres.NewRunRepository(db, cfg.DBSchema)
	}

	if cfg.ArchiveEnabled() {
		minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioSecure,
		})
		if err != nil {
			return fmt.Errorf("init minio client: %w", err)
		}
		rawArchive := archive.NewMinioArchive(minioClient, cfg.RawBucket)
		if err := rawArchive.EnsureBucket(ctx); err != nil {
			return err
		}
		opts.Archive = rawArchive
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	opts.Reporter = services.NewEmailService(mailer, renderer, cfg.ReportRecipients, logger)

	ingestService := services.NewIngestService(fetcher, sinks, logger, opts)

	if once {
		summary, err := ingestService.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("ingest complete", "run_id", summary.RunID, "tables", summary.Tables)
		return nil
	}

	return serve(ctx, cfg, logger, ingestService, db, recorder)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ingestService domain.IngestService, db *sql.DB, recorder *metrics.Recorder) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to serve the admin API")
	}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set; POST /auth/token will reject every request")
	}

	authService := services.NewAuthService(auth.NewBcryptHasher(0), auth.NewJWTIssuer(cfg.JWTSecret), cfg.AdminPasswordHash, cfg.TokenExpiry)

	health := controllers.NewHealthController(nil)
	if db != nil {
		health = controllers.NewHealthController(db)
	}

	router := delivery.NewRouter(delivery.RouterConfig{
		Logger:         logger,
		Auth:           controllers.NewAuthController(logger, authService),
		Ingest:         controllers.NewIngestController(logger, ingestService),
		Health:         health,
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		Metrics:        recorder.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: readTimeout,
		// POST /ingest/runs blocks for the whole run.
		WriteTimeout: cfg.IngestTimeout + readTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin api listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	return nil
}
