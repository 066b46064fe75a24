package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/finlab-br/patrimonio/internal/api"
	"github.com/finlab-br/patrimonio/internal/config"
	"github.com/finlab-br/patrimonio/internal/correction"
	"github.com/finlab-br/patrimonio/internal/dashboard"
	"github.com/finlab-br/patrimonio/internal/database"
	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/export"
	"github.com/finlab-br/patrimonio/internal/fundamentals"
	"github.com/finlab-br/patrimonio/internal/index"
	"github.com/finlab-br/patrimonio/internal/quote"
	"github.com/finlab-br/patrimonio/internal/storage"
	"github.com/finlab-br/patrimonio/internal/valuation"
	"github.com/finlab-br/patrimonio/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "patrimonio",
		Usage: "personal finance computation service",
		Commands: []*cli.Command{
			serveCommand(),
			correctCommand(),
			valuateCommand(),
			exportCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// connect opens the pool and applies migrations.
func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}

// services bundles the wiring shared by the commands.
type services struct {
	contributions storage.ContributionRepository
	transactions  storage.TransactionRepository
	plans         storage.PlanRepository
	indexes       *index.Service
	correction    *correction.Service
	quotes        *quote.Service
	dashboards    *dashboard.Service
}

func buildServices(cfg config.Config, pool *pgxpool.Pool) *services {
	indexSvc := index.NewService(
		index.NewBCBClient(cfg.BCBURL, cfg.BCBRetryMax, cfg.BCBRetryDelay),
		index.NewPgCache(pool),
		index.PolicyExactMonth,
	)
	correctionSvc := correction.NewService(indexSvc, nil)
	quoteSvc := quote.NewService(
		quote.NewBrapiClient(cfg.BrapiURL, cfg.BrapiToken, cfg.BrapiRetryMax, cfg.BrapiRetryDelay),
		quote.NewPgRepository(pool),
		cfg.QuoteStaleThreshold,
		nil,
	)
	contributions := storage.NewPgContributionRepository(pool)

	return &services{
		contributions: contributions,
		transactions:  storage.NewPgTransactionRepository(pool),
		plans:         storage.NewPgPlanRepository(pool),
		indexes:       indexSvc,
		correction:    correctionSvc,
		quotes:        quoteSvc,
		dashboards:    dashboard.NewService(contributions, correctionSvc, nil),
	}
}

// buildValuation wires the Gemini-backed valuation service. Returns an error
// when no API key is configured.
func buildValuation(ctx context.Context, cfg config.Config) (*valuation.Service, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for valuation")
	}
	gemini, err := fundamentals.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	extractor := fundamentals.NewService(gemini)
	return valuation.NewService(extractor, extractor), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and background workers",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs := buildServices(cfg, pool)

			var valuationSvc *valuation.Service
			if cfg.GeminiAPIKey != "" {
				if valuationSvc, err = buildValuation(ctx, cfg); err != nil {
					return err
				}
			} else {
				slog.Warn("GEMINI_API_KEY not set, valuation endpoint disabled")
			}

			quoteWorker := worker.NewQuoteWorker(svcs.transactions, svcs.quotes, cfg.QuoteWorkerInterval)
			go quoteWorker.Run(ctx)

			indexWorker := worker.NewIndexWorker(svcs.indexes, cfg.IndexWorkerInterval, nil)
			go indexWorker.Run(ctx)

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, refresh endpoint is unprotected")
			}

			handler := api.NewHandler(api.HandlerDeps{
				Dashboards:    svcs.dashboards,
				Valuations:    valuationService(valuationSvc),
				Refresher:     quoteWorker,
				Planner:       svcs.correction,
				Contributions: svcs.contributions,
				Transactions:  svcs.transactions,
				Plans:         svcs.plans,
				Quotes:        svcs.quotes,
			})
			srv := api.NewServer(cfg.HTTPPort, handler, cfg.AdminAPIKey)

			go func() {
				log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("HTTP server error: %v", err)
					stop()
				}
			}()

			<-ctx.Done()
			log.Println("Shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}

			log.Println("Shutdown complete")
			return nil
		},
	}
}

// valuationService adapts a possibly-nil service to the api.Valuations
// interface without handing the handler a typed nil.
func valuationService(svc *valuation.Service) api.Valuations {
	if svc == nil {
		return unavailableValuations{}
	}
	return svc
}

type unavailableValuations struct{}

func (unavailableValuations) Report(context.Context, string) (valuation.Report, error) {
	return valuation.Report{}, &fundamentals.ExtractError{Ticker: "", Err: fmt.Errorf("valuation disabled")}
}

func correctCommand() *cli.Command {
	return &cli.Command{
		Name:  "correct",
		Usage: "recompute inflation-corrected values for a user's contributions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "user identifier"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			pool, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs := buildServices(cfg, pool)
			user := c.String("user")

			entries, err := svcs.contributions.List(c.Context, user)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no contributions found")
				return nil
			}

			history, err := svcs.correction.CorrectHistory(c.Context, entries)
			if err != nil {
				return err
			}

			fmt.Printf("%-12s %12s %12s\n", "DATE", "NOMINAL", "CORRECTED")
			for i, e := range entries {
				corrected := domain.Round2(history.Corrected[i])
				fmt.Printf("%-12s %12s %12s\n",
					e.Date.Format("2006-01-02"), e.Amount.StringFixed(2), corrected.StringFixed(2))
				if err := svcs.contributions.UpdateCorrected(c.Context, user, e.ID, corrected); err != nil {
					return err
				}
			}
			fmt.Printf("accumulated factor: %s\n", history.FinalFactor.StringFixed(6))
			return nil
		},
	}
}

func valuateCommand() *cli.Command {
	return &cli.Command{
		Name:      "valuate",
		Usage:     "print the valuation report for a ticker",
		ArgsUsage: "<ticker>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: valuate <ticker>")
			}

			cfg := config.Load()
			svc, err := buildValuation(c.Context, cfg)
			if err != nil {
				return err
			}

			report, err := svc.Report(c.Context, c.Args().First())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a portfolio and dashboard report to a spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "user identifier"},
			&cli.StringFlag{Name: "out", Usage: "output .xlsx path (omit to write to Google Sheets)"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			pool, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs := buildServices(cfg, pool)

			var writer export.SheetWriter
			if out := c.String("out"); out != "" {
				writer = export.NewXLSXWriter(out)
			} else {
				if cfg.SheetsSpreadsheetID == "" || cfg.GoogleCredentialsJSON == "" {
					return fmt.Errorf("set --out or SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON")
				}
				writer, err = export.NewSheetsWriter(c.Context, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
				if err != nil {
					return err
				}
			}

			exporter := export.NewService(svcs.dashboards, svcs.transactions, svcs.quotes, writer, nil)
			if err := exporter.Export(c.Context, c.String("user")); err != nil {
				return err
			}
			fmt.Println("export complete")
			return nil
		},
	}
}
