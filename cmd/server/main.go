package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"edutech-backend-go/internal/config"
	"edutech-backend-go/internal/db"
	httpapi "edutech-backend-go/internal/http"
	"edutech-backend-go/internal/logger"
	"edutech-backend-go/internal/migrations"
	"edutech-backend-go/internal/observability"
	"edutech-backend-go/internal/services"
)

func main() {
	_ = godotenv.Load()

	root := &cli.Command{
		Name:  "edutech",
		Usage: "EduTech backend server and admin tools",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			createAdminCommand(),
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runServer(ctx)
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runServer(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit",
		Action: func(ctx context.Context, _ *cli.Command) error {
			_, log, database, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer database.Close()
			version, err := migrations.Version(ctx, database)
			if err != nil {
				return err
			}
			log.Info("migrations applied", "version", version)
			return nil
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "nome", Required: true, Usage: "display name"},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "senha", Required: true, Usage: "password, at least 6 characters"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, database, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer database.Close()

			users := services.UserService{DB: database, Tokens: tokenService(cfg)}
			id, err := users.Register(ctx, services.RegisterInput{
				Nome:  c.String("nome"),
				Email: c.String("email"),
				Senha: c.String("senha"),
				Tipo:  services.RoleAdmin,
			})
			if err != nil {
				return err
			}
			log.Info("admin created", "id", id, "email", c.String("email"))
			fmt.Printf("admin created with id %d\n", id)
			return nil
		},
	}
}

// bootstrap loads configuration, opens the database and brings the schema up
// to date. Every command needs the same three steps.
func bootstrap(ctx context.Context) (config.Config, *logger.Logger, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("logger: %w", err)
	}
	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Sync()
		return config.Config{}, nil, nil, fmt.Errorf("db: %w", err)
	}
	if err := migrations.Apply(ctx, database); err != nil {
		_ = database.Close()
		log.Sync()
		return config.Config{}, nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, log, database, nil
}

func tokenService(cfg config.Config) services.TokenService {
	return services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		TTL:        time.Duration(cfg.SessionTTLSeconds) * time.Second,
		BcryptCost: cfg.BcryptCost,
	}
}

func runServer(ctx context.Context) error {
	cfg, log, database, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer database.Close()

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "edutech-backend",
		Environment: cfg.LogMode,
		Version:     cfg.ServiceVersion,
	})
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	var revoker services.Revoker = services.NoopRevoker{}
	if cfg.RedisAddr != "" {
		redisRevoker, err := services.NewRedisRevoker(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, logout revocation disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisRevoker.Close()
			revoker = redisRevoker
		}
	}

	server := httpapi.NewServer(database, cfg, log, revoker)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", httpServer.Addr, "driver", cfg.DatabaseDriver)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
