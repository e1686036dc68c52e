package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondmodel/config"
	"github.com/meenmo/bondmodel/refdata"
	"github.com/meenmo/bondmodel/utils"
)

type generateFlags struct {
	out         string
	bonds       int
	seed        uint64
	valuation   string
	dsn         string
	driver      string
	writeConfig string
}

func newGenerateCmd() *cobra.Command {
	var fl generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic reference workbook",
		Long: `Generate a deterministic bond table with the default zero curve and write it as
a workbook that "run" can load. With --dsn the same data is also saved to Postgres.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(cmd.ErrOrStderr(), "bondmodel ", log.LstdFlags)
			return generate(cmd.Context(), fl, logger)
		},
	}
	cmd.Flags().StringVar(&fl.out, "out", "bond_data.xlsx", "workbook path")
	cmd.Flags().IntVar(&fl.bonds, "bonds", 1000, "number of bonds")
	cmd.Flags().Uint64Var(&fl.seed, "seed", 1234, "random seed")
	cmd.Flags().StringVar(&fl.valuation, "valuation", "2022-01-01", "valuation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fl.dsn, "dsn", "", "also save to this Postgres database")
	cmd.Flags().StringVar(&fl.driver, "driver", "pgx", "database/sql driver: pgx or postgres")
	cmd.Flags().StringVar(&fl.writeConfig, "write-config", "", "also write a config file pointing at the workbook")
	return cmd
}

func generate(ctx context.Context, fl generateFlags, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	valuation, err := utils.ParseDate(fl.valuation)
	if err != nil {
		return err
	}
	bonds, err := refdata.Generate(fl.bonds, fl.seed, valuation)
	if err != nil {
		return err
	}
	store, err := refdata.NewStore(bonds, refdata.DefaultZeroCurve())
	if err != nil {
		return err
	}

	if err := writeFile(fl.out, func(f *os.File) error { return refdata.WriteXLSX(f, store) }); err != nil {
		return err
	}
	logger.Printf("wrote %d bonds to %s", store.Len(), fl.out)

	if fl.dsn != "" {
		db, err := refdata.OpenDB(ctx, fl.driver, fl.dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := refdata.NewRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := repo.Save(ctx, store); err != nil {
			return err
		}
		logger.Printf("saved %d bonds to postgres", store.Len())
	}

	if fl.writeConfig != "" {
		cfg := config.Default()
		cfg.ValuationDate = fl.valuation
		cfg.Data.Path = fl.out
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := writeFile(fl.writeConfig, func(f *os.File) error { return cfg.WriteYAML(f) }); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		logger.Printf("wrote %s", fl.writeConfig)
	}
	return nil
}
