package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/muaazl/product-matcher/internal/batch"
	"github.com/muaazl/product-matcher/internal/config"
	"github.com/muaazl/product-matcher/internal/embedding"
	"github.com/muaazl/product-matcher/internal/match/handler"
	"github.com/muaazl/product-matcher/internal/match/loader"
	"github.com/muaazl/product-matcher/internal/match/model"
	"github.com/muaazl/product-matcher/internal/match/service"
	"github.com/muaazl/product-matcher/internal/metrics"
	serverhttp "github.com/muaazl/product-matcher/server/http"
)

type app struct {
	cfg      config.Config
	settings model.Settings
	embedder embedding.Embedder
	logger   zerolog.Logger
}

// bootstrap: env -> логгер -> настройки -> эмбеддер. Общая часть для serve и run.
func bootstrap(c *cli.Context) (*app, error) {
	cfg := config.Load()
	if v := c.String("settings"); v != "" {
		cfg.SettingsFile = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	logger := config.SetupLogger(cfg)

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return nil, err
	}
	emb, err := embedding.NewProvider(embedding.ProviderConfig{
		Provider: cfg.Embed.Provider,
		OpenAI: embedding.OpenAIConfig{
			APIKey:     cfg.Embed.APIKey,
			BaseURL:    cfg.Embed.BaseURL,
			Model:      cfg.Embed.Model,
			Dimensions: cfg.Embed.Dimensions,
			BatchSize:  cfg.Embed.BatchSize,
		},
		HashDim:   cfg.Embed.Dimensions,
		Cache:     cfg.Embed.Cache,
		CacheSize: cfg.Embed.CacheSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, settings: settings, embedder: emb, logger: logger}, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", EnvVars: []string{"HOST"}},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, EnvVars: []string{"PORT"}},
		},
		Action: func(c *cli.Context) error {
			a, err := bootstrap(c)
			if err != nil {
				return err
			}
			if v := c.String("host"); v != "" {
				a.cfg.Host = v
			}
			if v := c.Int("port"); v > 0 {
				a.cfg.Port = v
			}
			metrics.Register()

			r := serverhttp.NewRouter(a.cfg, handler.Deps{
				Settings:     a.settings,
				Embedder:     a.embedder,
				ExtraColumns: a.cfg.ExtraColumns,
				Logger:       a.logger,
			}, a.logger)

			srv := &http.Server{Addr: a.cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
			a.logger.Info().Str("addr", a.cfg.Addr()).Msg("server starting")

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("listen: %w", err)
			case <-quit:
			}
			a.logger.Info().Msg("server shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
			a.logger.Info().Msg("bye")
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Match every spreadsheet in a file or folder against the dictionary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dictionary", Aliases: []string{"d"}, Usage: "dictionary file (xlsx, xls, csv)", Required: true},
			&cli.StringFlag{Name: "dictionary-sheet", Value: loader.DefaultDictionary.Sheet},
			&cli.StringFlag{Name: "dictionary-column", Usage: "column with product names, alternatives separated by |"},
			&cli.StringFlag{Name: "brands", Aliases: []string{"b"}, Usage: "brand list file; default is the Brands sheet of the dictionary workbook"},
			&cli.StringFlag{Name: "brands-sheet", Value: loader.DefaultBrands.Sheet},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "file or folder with names to tag", Required: true},
			&cli.StringFlag{Name: "pattern", Value: batch.DefaultPattern, Usage: "glob for folder input"},
			&cli.StringFlag{Name: "query-sheet", Value: loader.DefaultQueries.Sheet},
			&cli.StringFlag{Name: "query-column", Usage: "column with names to tag, alternatives separated by |"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output folder; default is next to each input"},
			&cli.BoolFlag{Name: "in-place", Usage: "write a result sheet back into xlsx inputs"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "parallel queries per file"},
			&cli.Float64Flag{Name: "threshold", Aliases: []string{"t"}, Value: -1, Usage: "accept threshold 0..100"},
		},
		Action: func(c *cli.Context) error {
			a, err := bootstrap(c)
			if err != nil {
				return err
			}
			if w := c.Int("workers"); w > 0 {
				a.settings.Workers = w
			}
			if t := c.Float64("threshold"); t >= 0 {
				if t > 100 {
					return fmt.Errorf("threshold must be within 0..100, got %v", t)
				}
				a.settings.Threshold = t
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			m, err := buildMatcher(ctx, a, c)
			if err != nil {
				return err
			}

			runner := batch.NewRunner(m, batch.Options{
				Input:   c.String("input"),
				Pattern: c.String("pattern"),
				OutDir:  c.String("out"),
				InPlace: c.Bool("in-place"),
				Queries: loader.SheetSpec{Sheet: c.String("query-sheet"), Column: c.String("query-column")},
				Extra:   a.cfg.ExtraColumns,
			}, a.logger)
			sum, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			if sum.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed", sum.Failed, len(sum.Files)), 2)
			}
			return nil
		},
	}
}

func buildMatcher(ctx context.Context, a *app, c *cli.Context) (*service.Matcher, error) {
	dict, err := loader.ReadSource(c.String("dictionary"))
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	rows, err := dict.DictionaryRows(loader.SheetSpec{
		Sheet:  c.String("dictionary-sheet"),
		Column: c.String("dictionary-column"),
	}.Merge(loader.DefaultDictionary))
	if err != nil {
		return nil, err
	}

	var brandSrc *loader.Source
	if p := c.String("brands"); p != "" {
		src, err := loader.ReadSource(p)
		if err != nil {
			a.logger.Warn().Err(err).Str("file", p).Msg("brand file unreadable")
		} else {
			brandSrc = &src
		}
	}
	brands := loader.BrandsOrEmpty(brandSrc, dict, loader.SheetSpec{Sheet: c.String("brands-sheet")}.Merge(loader.DefaultBrands), a.logger)

	return service.NewMatcher(ctx, a.settings, a.embedder, rows, brands, a.logger)
}
