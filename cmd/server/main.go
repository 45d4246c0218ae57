package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/recipes/internal/api"
	"github.com/mmynk/recipes/internal/auth"
	"github.com/mmynk/recipes/internal/config"
	"github.com/mmynk/recipes/internal/imagestore"
	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/service"
	"github.com/mmynk/recipes/internal/storage/sqlite"
	"github.com/mmynk/recipes/pkg/logging"
)

const usage = `usage:
  server                                             run the API server
  server createsuperuser -email EMAIL -password PW   create an administrator`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level)

	var runErr error
	switch args := os.Args[1:]; {
	case len(args) == 0:
		runErr = serve(cfg, logger)
	case args[0] == "createsuperuser":
		runErr = createSuperuser(cfg, args[1:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if runErr != nil {
		slog.Error("Exiting", "error", runErr)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (*sqlite.SQLiteStore, error) {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.Database.Path)
	return store, nil
}

func newImageStore(ctx context.Context, cfg config.StorageConfig) (imagestore.Store, error) {
	switch cfg.Backend {
	case config.StorageS3:
		return imagestore.NewS3Store(ctx, imagestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKeyID,
			SecretKey: cfg.S3SecretAccessKey,
		})
	default:
		return imagestore.NewLocalStore(cfg.MediaRoot), nil
	}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	slog.Info("Image storage initialized", "backend", cfg.Storage.Backend)

	users := auth.NewPasswordAuthenticator(store)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	apiCfg := api.Config{
		CORSOrigins:    cfg.Server.CORSOrigins,
		TokenRateLimit: cfg.Server.TokenRateLimit,
		MediaURL:       cfg.Storage.PublicURL(),
	}
	if cfg.Storage.Backend == config.StorageLocal {
		apiCfg.MediaDir = cfg.Storage.MediaRoot
	}

	handler := api.NewRouter(apiCfg, api.Deps{
		Auth:        service.NewAuthService(users, tokens, logger),
		Recipes:     service.NewRecipeService(store, images, logger),
		Tags:        service.NewAttributeService(models.KindTag, store, logger),
		Ingredients: service.NewAttributeService(models.KindIngredient, store, logger),
		Tokens:      tokens,
		Users:       users,
		Health:      store,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func createSuperuser(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	email := fs.String("email", "", "administrator email")
	password := fs.String("password", os.Getenv("RECIPE_SUPERUSER_PASSWORD"), "administrator password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := auth.NewPasswordAuthenticator(store).CreateSuperuser(context.Background(), *email, *password)
	if err != nil {
		return err
	}
	slog.Info("Superuser created", "user_id", user.ID, "email", user.Email)
	return nil
}
