package main

import (
	"context"
	"fmt"
	"net"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/book-social/internal/platform/analytics"
	"github.com/example/book-social/internal/platform/auth"
	"github.com/example/book-social/internal/platform/config"
	"github.com/example/book-social/internal/platform/db"
	"github.com/example/book-social/internal/platform/httpserver"
	"github.com/example/book-social/internal/platform/natsconn"
	"github.com/example/book-social/internal/platform/run"
	"github.com/example/book-social/services/discussion/internal/discussion"
	"github.com/example/book-social/services/discussion/internal/grpcapi"
	"github.com/example/book-social/services/discussion/internal/handlers"
	"github.com/example/book-social/services/discussion/internal/idempotency"
	"github.com/example/book-social/services/discussion/internal/render"
	"github.com/example/book-social/services/discussion/internal/store"
)

type serveOptions struct {
	*rootOptions
	Migrate bool
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(opts *serveOptions) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, pool, err := initStore(cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		if opts.Migrate {
			if _, err := store.Migrate(context.Background(), pool, log); err != nil {
				return err
			}
		}
	}

	idem, err := idempotency.NewStore(cfg.RedisDSN, pool, cfg.Discussion.IdempotencyTTL, cfg.IsProd())
	if err != nil {
		return err
	}

	// events are best effort; a missing broker only disables them
	var events *analytics.Publisher
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName, Logger: log})
	if err != nil {
		log.Warn("nats unavailable, lifecycle events disabled", zap.Error(err))
	} else {
		defer nc.Close()
		if events, err = analytics.Connect(nc, log); err != nil {
			log.Warn("jetstream unavailable, lifecycle events disabled", zap.Error(err))
		}
	}

	renderer, err := render.New(cfg.Discussion.MarkdownCacheSize)
	if err != nil {
		return err
	}
	svc := discussion.NewService(st, renderer, events, log, discussion.Config{
		PageSize:   cfg.Discussion.PageSize,
		ReplyDepth: cfg.Discussion.ReplyDepth,
	})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc:   func() error { return svc.Ping(context.Background()) },
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      log,
	})
	handlers.Mount(r, handlers.Deps{
		Service:     svc,
		Idempotency: idem,
		Verifier:    auth.JWTVerifier{Secret: []byte(cfg.Auth.JWTSecret)},
		CookieName:  cfg.Auth.CookieName,
		Logger:      log,
	})
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Logger: log, Handler: r})

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	grpcSrv := grpc.NewServer()
	grpcapi.Register(grpcSrv, &grpcapi.Server{Svc: svc, Log: log})
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	reflection.Register(grpcSrv)
	if err := svc.Ping(context.Background()); err != nil {
		log.Warn("storage not ready at startup", zap.Error(err))
		hs.SetServingStatus(grpcapi.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	} else {
		hs.SetServingStatus(grpcapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	code := run.New(log).WithSignals(func(ctx context.Context) error {
		errCh := make(chan error, 2)
		go func() {
			log.Info("grpc server starting", zap.String("addr", cfg.GRPC.Addr))
			errCh <- grpcSrv.Serve(lis)
		}()
		go func() { errCh <- srv.Start() }()
		return <-errCh
	})

	hs.Shutdown()
	run.StopGRPC(grpcSrv)
	if err := run.Graceful(srv.Shutdown); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("exit", zap.Int("code", code))
	if code != 0 {
		return fmt.Errorf("discussion exited with code %d", code)
	}
	return nil
}

// initStore selects the storage backend. Production requires Postgres;
// development falls back to the in-memory store.
func initStore(cfg config.AppConfig, log *zap.Logger) (store.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProd() {
			return nil, nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL not set, using in-memory comment store (development only)")
		return store.NewMemoryStore(), nil, nil
	}

	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProd() {
			return nil, nil, fmt.Errorf("postgres is required in production: %w", err)
		}
		log.Warn("postgres unavailable, falling back to in-memory comment store", zap.Error(err))
		return store.NewMemoryStore(), nil, nil
	}

	log.Info("comments store: postgres")
	return store.NewPostgresStore(pool), pool, nil
}
