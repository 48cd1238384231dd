package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/events"
	"github.com/ishan19r/apt-hunt/fetch"
	"github.com/ishan19r/apt-hunt/server"
	"github.com/ishan19r/apt-hunt/services"
	"github.com/ishan19r/apt-hunt/storage"
	"github.com/ishan19r/apt-hunt/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	criteria := cfg.LoadCriteria()
	profile := cfg.LoadProfile()
	budget := cfg.LoadBudget()

	logger.Info("=== Apartment Hunter starting ===")
	logger.Info("Config — rent: $%d-$%d | targets: %d | cap/target: %d | store: %s",
		criteria.MinRent, criteria.MaxRent, len(criteria.Neighborhoods),
		cfg.MaxPerTarget, cfg.StoreBackend)

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	services.PrintBudgetReport(criteria, budget)

	bus := events.NewBus(256)
	runner := services.NewRunner()

	// Crawls run headless; inquiries keep the window visible so a human
	// can review and submit each filled form.
	crawlBrowser := fetch.NewChromeFetcher(cfg.ChromeBin, true,
		time.Duration(cfg.CrawlDelayMinMs)*time.Millisecond, logger)
	defer crawlBrowser.Close()

	inquiryBrowser := fetch.NewChromeFetcher(cfg.ChromeBin, false,
		time.Duration(cfg.CrawlDelayMinMs)*time.Millisecond, logger)
	defer inquiryBrowser.Close()

	crawler := services.NewCrawler(crawlBrowser, store, bus, logger, services.CrawlerOptions{
		DelayMin:     time.Duration(cfg.CrawlDelayMinMs) * time.Millisecond,
		DelayMax:     time.Duration(cfg.CrawlDelayMaxMs) * time.Millisecond,
		MaxPerTarget: cfg.MaxPerTarget,
		FetchTimeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
	})

	sequencer := services.NewSequencer(inquiryBrowser, store, bus, logger, profile,
		time.Duration(cfg.ReviewWaitSec)*time.Second)

	srv := server.New(store, crawler, sequencer, runner, bus, logger, criteria, profile, budget)

	addr := ":" + cfg.HTTPPort
	logger.Info("Listening on http://localhost%s", addr)
	fmt.Printf("  🏠 Apartment Hunter ready — API on http://localhost%s/api\n\n", addr)

	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logger *utils.Logger) (storage.Store, error) {
	if cfg.StoreBackend == "postgres" {
		logger.Info("Using PostgreSQL store (%s:%s/%s)", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return storage.NewPostgresStore(cfg.DSN(), logger)
	}
	logger.Info("Using JSON tracker store (%s)", cfg.TrackerPath)
	return storage.NewJSONStore(cfg.TrackerPath)
}
