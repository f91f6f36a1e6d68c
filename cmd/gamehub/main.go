// Command gamehub serves the game catalog and forum search API, and can run
// a one-shot IGDB catalog import with --sync-catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gamehub-dev/gamehub/internal/cache"
	"github.com/gamehub-dev/gamehub/internal/catalog"
	"github.com/gamehub-dev/gamehub/internal/config"
	"github.com/gamehub-dev/gamehub/internal/forum"
	"github.com/gamehub-dev/gamehub/internal/httpapi"
	"github.com/gamehub-dev/gamehub/internal/igdb"
	"github.com/gamehub-dev/gamehub/internal/logging"
	"github.com/gamehub-dev/gamehub/internal/similar"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	syncCatalog := flag.Bool("sync-catalog", false, "import the IGDB catalog and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if *syncCatalog {
		runSync(ctx, pool, cfg)
		return
	}

	store := newCacheStore(cfg)

	server := &httpapi.Server{
		Games:   catalog.NewSearcher(pool, store, cfg.Cache.GamesTTL),
		Catalog: catalog.NewStore(pool, store),
		Posts:   forum.NewSearcher(pool, store, cfg.Cache.ForumTTL, cfg.Search.ScopedFallback),
	}
	if cfg.Embeddings.Enabled {
		embed, err := similar.NewOpenAIEmbedder(similar.OpenAIConfig{
			BaseURL:    cfg.Embeddings.BaseURL,
			APIKey:     cfg.Embeddings.APIKey,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("configure embedder")
		}
		server.Similar = similar.NewService(pool, embed)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func newCacheStore(cfg *config.Config) cache.Store {
	if !cfg.Redis.Enabled {
		log.Info().Msg("redis disabled; using in-process cache")
		return cache.NewMemory()
	}
	store, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unreachable; falling back to in-process cache")
		return cache.NewMemory()
	}
	return store
}

func runSync(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config) {
	client, err := igdb.NewClient(igdb.Config{
		ClientID:     cfg.IGDB.ClientID,
		ClientSecret: cfg.IGDB.ClientSecret,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configure igdb client")
	}

	var embed igdb.GameEmbedder
	if cfg.Embeddings.Enabled {
		e, err := similar.NewOpenAIEmbedder(similar.OpenAIConfig{
			BaseURL:    cfg.Embeddings.BaseURL,
			APIKey:     cfg.Embeddings.APIKey,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("configure embedder")
		}
		embed = similar.NewService(pool, e)
	}

	start := time.Now()
	n, err := igdb.NewSyncer(pool, client, embed).Sync(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("imported", n).Msg("catalog sync failed")
	}
	log.Info().Int("imported", n).Dur("took", time.Since(start)).Msg("catalog sync complete")
	os.Exit(0)
}
