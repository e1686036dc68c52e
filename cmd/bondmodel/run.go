package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/meenmo/bondmodel/cache"
	"github.com/meenmo/bondmodel/config"
	"github.com/meenmo/bondmodel/export"
	"github.com/meenmo/bondmodel/metrics"
	"github.com/meenmo/bondmodel/model"
	"github.com/meenmo/bondmodel/refdata"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Project cashflows and value the portfolio",
		Long: `Load reference data, project the portfolio cashflows and redemptions, value
every bond and print the result as JSON. Workbook, PDF and metrics outputs are
written when their paths are configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			logger := log.New(cmd.ErrOrStderr(), "bondmodel ", log.LstdFlags)
			res, err := runModel(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func runModel(ctx context.Context, cfg *config.Config, logger *log.Logger) (*model.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := loadStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	opts := model.DefaultOptions()
	opts.ValuationDate = cfg.Valuation()
	opts.HorizonEndDate = cfg.HorizonEnd()
	opts.SemiannualLabel = cfg.Model.SemiannualTenorLabel
	opts.Workers = cfg.Model.Workers
	opts.Metrics = metrics.New(reg)
	opts.Logger = logger

	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cache.WithOptions(&cache.Options{DefaultTTL: cfg.CacheTTL()}))
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		opts.Cache = rc
	}

	m, err := model.New(store, opts)
	if err != nil {
		return nil, err
	}
	res, err := m.Run(ctx)
	if err != nil {
		return nil, err
	}

	if p := cfg.Output.XLSX; p != "" {
		if err := writeFile(p, func(f *os.File) error { return export.WriteXLSX(f, res) }); err != nil {
			return nil, err
		}
		logger.Printf("wrote %s", p)
	}
	if p := cfg.Output.PDF; p != "" {
		if err := writeFile(p, func(f *os.File) error { return export.WritePDF(f, res) }); err != nil {
			return nil, err
		}
		logger.Printf("wrote %s", p)
	}
	if p := cfg.Output.Metrics; p != "" {
		if err := metrics.WriteTextfile(p, reg); err != nil {
			return nil, fmt.Errorf("writing metrics: %w", err)
		}
		logger.Printf("wrote %s", p)
	}
	return res, nil
}

func loadStore(ctx context.Context, cfg *config.Config) (*refdata.Store, error) {
	switch cfg.Data.Source {
	case config.SourceXLSX:
		return refdata.LoadXLSX(cfg.Data.Path)
	case config.SourcePostgres:
		db, err := refdata.OpenDB(ctx, cfg.Data.Driver, cfg.Data.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		repo := refdata.NewRepository(db,
			refdata.WithBondsTable(cfg.Data.BondsTable),
			refdata.WithCurveTable(cfg.Data.CurveTable),
		)
		return repo.Load(ctx)
	case config.SourceGenerate:
		bonds, err := refdata.Generate(cfg.Data.Bonds, cfg.Data.Seed, cfg.Valuation())
		if err != nil {
			return nil, err
		}
		return refdata.NewStore(bonds, refdata.DefaultZeroCurve())
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
