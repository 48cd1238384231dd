package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/events"
	"github.com/ishan19r/apt-hunt/fetch"
	"github.com/ishan19r/apt-hunt/models"
	"github.com/ishan19r/apt-hunt/scraper/streeteasy"
	"github.com/ishan19r/apt-hunt/storage"
	"github.com/ishan19r/apt-hunt/utils"
)

// Crawl run states.
const (
	CrawlIdle      = "idle"
	CrawlRunning   = "running"
	CrawlCompleted = "completed"
	CrawlAborted   = "aborted"
)

// CrawlerOptions bound one run's pacing and volume.
type CrawlerOptions struct {
	DelayMin       time.Duration
	DelayMax       time.Duration
	MaxPerTarget   int
	FetchTimeout   time.Duration
	FetchAttempts  int
	FetchRetryWait time.Duration
}

// Crawler sequences fetch → extract → normalize → dedup → score → emit
// across the enabled search targets. One run owns its dedup set and result
// batch exclusively; targets are processed strictly sequentially because
// the rendering session cannot be shared across navigations.
type Crawler struct {
	fetcher fetch.Fetcher
	store   storage.Store
	bus     *events.Bus
	logger  *utils.Logger
	opts    CrawlerOptions
	retry   *utils.RetryConfig
	rng     *rand.Rand

	mu          sync.Mutex
	state       string
	targetIndex int
}

// NewCrawler creates a Crawler in the Idle state.
func NewCrawler(fetcher fetch.Fetcher, store storage.Store, bus *events.Bus, logger *utils.Logger, opts CrawlerOptions) *Crawler {
	if opts.MaxPerTarget <= 0 {
		opts.MaxPerTarget = 10
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.FetchAttempts <= 0 {
		opts.FetchAttempts = 2
	}
	if opts.FetchRetryWait <= 0 {
		opts.FetchRetryWait = 2 * time.Second
	}
	return &Crawler{
		fetcher: fetcher,
		store:   store,
		bus:     bus,
		logger:  logger,
		opts:    opts,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.FetchAttempts,
			BaseDelay:   opts.FetchRetryWait,
			Logger:      logger,
		},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		state: CrawlIdle,
	}
}

// State returns the current run state.
func (c *Crawler) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Crawler) setState(state string, targetIndex int) {
	c.mu.Lock()
	c.state = state
	c.targetIndex = targetIndex
	c.mu.Unlock()
}

// Run executes one full crawl over the criteria snapshot. Per-target
// failures are reported and skipped; the run completes regardless. Only
// failing to read the store's existing identifiers aborts the run.
func (c *Crawler) Run(ctx context.Context, cr config.Criteria, bc config.BudgetConfig) (models.RunStats, error) {
	c.setState(CrawlRunning, 0)

	existing, err := c.store.LoadAll()
	if err != nil {
		c.setState(CrawlAborted, 0)
		c.bus.Publish(events.RunFailed, map[string]interface{}{"reason": err.Error()})
		return models.RunStats{}, fmt.Errorf("crawler: seed dedup: %w", err)
	}

	dedup := utils.NewDedup()
	urls := make([]string, 0, len(existing))
	for _, l := range existing {
		urls = append(urls, l.URL)
	}
	dedup.Seed(urls)

	var targets []models.SearchTarget
	for _, t := range cr.Neighborhoods {
		if t.Enabled {
			targets = append(targets, t)
		}
	}

	c.logger.Info("[crawler] Run started — %d targets, rent window $%d-$%d, %d known listings",
		len(targets), cr.MinRent, cr.MaxRent, dedup.Size())

	var stats models.RunStats
	var batch []models.Listing

	for i, target := range targets {
		c.setState(CrawlRunning, i)
		c.bus.Publish(events.Progress, map[string]interface{}{
			"target":       target.Slug,
			"percent":      i * 100 / len(targets),
			"count_so_far": len(batch),
		})

		c.politenessDelay()

		accepted, found, failed := c.crawlTarget(ctx, target.Slug, cr, bc, dedup)
		stats.TotalFound += found
		if failed {
			stats.TargetsFailed++
			continue
		}

		for _, sl := range accepted {
			if sl.PassesBudgetRule {
				stats.PassingBudgetRule++
			}
			batch = append(batch, sl.Listing)
		}
	}

	stats.NewAdded = len(batch)

	if err := c.store.AppendBatch(batch); err != nil {
		c.setState(CrawlAborted, len(targets))
		c.bus.Publish(events.RunFailed, map[string]interface{}{"reason": err.Error()})
		return stats, fmt.Errorf("crawler: append batch: %w", err)
	}

	c.setState(CrawlCompleted, len(targets))
	c.bus.Publish(events.RunComplete, stats)
	c.logger.Info("[crawler] Run complete — %d found, %d new, %d passing 40x, %d targets failed",
		stats.TotalFound, stats.NewAdded, stats.PassingBudgetRule, stats.TargetsFailed)
	return stats, nil
}

// crawlTarget processes one neighborhood. It returns the accepted scored
// records, the count of in-range records found (pre-dedup), and whether
// the target failed outright.
func (c *Crawler) crawlTarget(ctx context.Context, slug string, cr config.Criteria, bc config.BudgetConfig, dedup *utils.Dedup) ([]models.ScoredListing, int, bool) {
	display := streeteasy.TitleCaseSlug(slug)
	c.bus.Publish(events.Status, map[string]interface{}{
		"message": fmt.Sprintf("Searching %s...", display),
	})

	url := streeteasy.SearchURL(slug, cr)
	var html string
	err := c.retry.Do("fetch "+slug, func() error {
		var ferr error
		html, ferr = c.fetcher.Fetch(ctx, url, streeteasy.WaitSelectors, c.opts.FetchTimeout)
		return ferr
	})
	if err != nil {
		c.logger.Warn("[crawler] %s failed: %v", slug, err)
		c.bus.Publish(events.Status, map[string]interface{}{
			"target":  slug,
			"message": fmt.Sprintf("Error loading %s: %v", display, err),
		})
		return nil, 0, true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		c.logger.Warn("[crawler] %s parse failed: %v", slug, err)
		c.bus.Publish(events.Status, map[string]interface{}{
			"target":  slug,
			"message": fmt.Sprintf("Error parsing %s: %v", display, err),
		})
		return nil, 0, true
	}

	frags := streeteasy.Fragments(doc)
	c.bus.Publish(events.Status, map[string]interface{}{
		"message": fmt.Sprintf("Found %d listings in %s", len(frags), display),
	})

	// Oldest-first truncation keeps the run duration bounded.
	if len(frags) > c.opts.MaxPerTarget {
		frags = frags[:c.opts.MaxPerTarget]
	}

	var accepted []models.ScoredListing
	found := 0
	for _, frag := range frags {
		l := streeteasy.Normalize(frag, slug, time.Now())

		if l.URL == "" {
			// No stable identity to dedup on; never persisted.
			continue
		}
		if !streeteasy.InRange(l.Rent, cr) {
			continue
		}
		found++
		if !dedup.Add(l.URL) {
			c.logger.Debug("[crawler] Duplicate skipped: %s", l.URL)
			continue
		}

		sl := ScoreListing(l, cr, bc)
		accepted = append(accepted, sl)
		c.bus.Publish(events.ListingFound, sl)
	}

	return accepted, found, false
}

// politenessDelay sleeps a uniform random duration in [DelayMin, DelayMax].
func (c *Crawler) politenessDelay() {
	min, max := c.opts.DelayMin, c.opts.DelayMax
	if max <= min {
		if min > 0 {
			time.Sleep(min)
		}
		return
	}
	time.Sleep(min + time.Duration(c.rng.Int63n(int64(max-min+1))))
}
