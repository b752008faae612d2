package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/config"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/handler"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/payload"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/storage/local"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/storage/minio"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
	"github.com/vasapolrittideah/bookstore-api/shared/auth"
	"github.com/vasapolrittideah/bookstore-api/shared/database"
	"github.com/vasapolrittideah/bookstore-api/shared/logger"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
	"github.com/vasapolrittideah/bookstore-api/shared/security"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.New("info", false).Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("failed to load .env file")
	}

	client, err := database.NewMongoClient(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongo")
		}
	}()
	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	bookRepo := repository.NewBookMongoRepository(ctx, log, db)
	purchaseRepo := repository.NewPurchaseMongoRepository(ctx, log, db)

	emailSender, err := mailer.NewMailer(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer")
	}

	imageStore, uploadsDir := newImageStore(ctx, log, cfg.Storage)

	validator, err := payload.NewValidator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	tokenIssuer := auth.NewTokenIssuer(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.ExpiresIn)
	otpManager := security.NewOTPManager(cfg.Token.OTPExpiresIn)

	authUsecase := usecase.NewAuthUsecase(userRepo, tokenIssuer, otpManager, emailSender, log)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		userRepo,
		emailSender,
		log,
		cfg.App.PasswordResetURL,
		cfg.Token.PasswordResetExpiresIn,
	)
	profileUsecase := usecase.NewProfileUsecase(userRepo)
	bookUsecase := usecase.NewBookUsecase(bookRepo, userRepo, imageStore, log)
	purchaseUsecase := usecase.NewPurchaseUsecase(purchaseRepo, bookRepo, userRepo, emailSender, log)

	router := handler.NewRouter(handler.RouterParams{
		Auth:           handler.NewAuthHandler(authUsecase, passwordResetUsecase, profileUsecase, validator, log),
		Book:           handler.NewBookHandler(bookUsecase, validator, log),
		Purchase:       handler.NewPurchaseHandler(purchaseUsecase, log),
		Health:         handler.NewHealthHandler(pingMongo(client), log),
		Verifier:       tokenIssuer,
		Logger:         log,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		UploadsDir:     uploadsDir,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received interruption signal, shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("shutdown complete")
}

// newImageStore builds the configured image store. The returned directory is
// served under /uploads and is empty unless images are kept on local disk.
func newImageStore(ctx context.Context, log *zerolog.Logger, cfg config.StorageConfig) (usecase.ImageStore, string) {
	if cfg.Driver == config.StorageDriverMinIO {
		store, err := minio.NewClient(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize minio storage")
		}
		return store, ""
	}

	store, err := local.NewFileStore(cfg.LocalPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize local storage")
	}
	return store, store.BasePath()
}

func pingMongo(client *mongo.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}
