package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/events"
	"github.com/ishan19r/apt-hunt/fetch"
	"github.com/ishan19r/apt-hunt/models"
	"github.com/ishan19r/apt-hunt/scraper/streeteasy"
	"github.com/ishan19r/apt-hunt/storage"
	"github.com/ishan19r/apt-hunt/utils"
)

// Sequencer drives the per-listing inquiry state machine: navigate, find a
// contact affordance, fill the form, pause for human review, confirm.
// Listings are processed strictly sequentially over one browser session.
type Sequencer struct {
	browser    fetch.Browser
	store      storage.Store
	bus        *events.Bus
	logger     *utils.Logger
	profile    config.Profile
	reviewWait time.Duration
}

// NewSequencer creates a Sequencer. reviewWait is the fixed, bounded pause
// before a filled form is considered handled; it is not extendable.
func NewSequencer(browser fetch.Browser, store storage.Store, bus *events.Bus, logger *utils.Logger, profile config.Profile, reviewWait time.Duration) *Sequencer {
	if reviewWait <= 0 {
		reviewWait = 30 * time.Second
	}
	return &Sequencer{
		browser:    browser,
		store:      store,
		bus:        bus,
		logger:     logger,
		profile:    profile,
		reviewWait: reviewWait,
	}
}

// Run sends inquiries for the given listings. A fault on one listing moves
// its task to Failed and the batch continues; only failing to open the
// browser session is fatal.
func (s *Sequencer) Run(ctx context.Context, listings []models.Listing) ([]models.InquiryTask, error) {
	if len(listings) == 0 {
		s.bus.Publish(events.Status, map[string]interface{}{"message": "No apartments selected"})
		return nil, nil
	}

	s.bus.Publish(events.Status, map[string]interface{}{
		"message": fmt.Sprintf("Sending %d inquiries...", len(listings)),
	})

	session, err := s.browser.NewSession(ctx)
	if err != nil {
		s.bus.Publish(events.RunFailed, map[string]interface{}{
			"pipeline": PipelineInquiry,
			"reason":   err.Error(),
		})
		return nil, fmt.Errorf("inquiry: open session: %w", err)
	}
	defer session.Close()

	tasks := make([]models.InquiryTask, 0, len(listings))
	for _, l := range listings {
		task := s.process(session, l)
		if !task.State.Terminal() {
			task = s.fail(task, fmt.Errorf("stopped mid-flight in state %s", task.State))
		}
		tasks = append(tasks, task)
		s.bus.Publish(events.InquiryProgress, map[string]interface{}{
			"apartment_id": l.ID,
			"address":      l.Address,
			"state":        task.State,
			"done":         task.State.Terminal(),
			"reason":       task.Reason,
		})
	}

	s.bus.Publish(events.InquiriesComplete, map[string]interface{}{
		"message": fmt.Sprintf("Processed %d inquiries", len(tasks)),
		"count":   len(tasks),
	})
	return tasks, nil
}

// process runs one listing through the state machine. Terminal states are
// Confirmed, Skipped, and Failed, never revisited.
func (s *Sequencer) process(session fetch.Session, l models.Listing) models.InquiryTask {
	task := models.InquiryTask{Listing: l, State: models.InquiryPending}

	if l.URL == "" {
		task.State = models.InquirySkipped
		task.Reason = "listing has no URL"
		return task
	}

	s.bus.Publish(events.Status, map[string]interface{}{
		"message": fmt.Sprintf("Opening: %s", l.Address),
	})

	if err := session.Navigate(l.URL); err != nil {
		return s.fail(task, fmt.Errorf("navigate: %w", err))
	}
	task.State = models.InquiryNavigated

	matched, found, err := session.ClickFirst(streeteasy.ContactSelectors)
	if err != nil {
		return s.fail(task, fmt.Errorf("contact affordance: %w", err))
	}
	if !found {
		s.logger.Warn("[inquiry] No contact button found for %s", l.Address)
		task.State = models.InquirySkipped
		task.Reason = "no contact affordance found"
		return task
	}
	s.logger.Debug("[inquiry] Contact affordance %q for %s", matched, l.Address)
	task.State = models.InquiryFormFound

	if err := s.fillForm(session, l); err != nil {
		return s.fail(task, err)
	}
	task.State = models.InquiryFormFilled

	s.bus.Publish(events.InquiryReady, map[string]interface{}{
		"apartment_id": l.ID,
		"address":      l.Address,
		"message":      "Form filled - please review and submit manually",
	})

	task.State = models.InquiryAwaitingReview
	s.bus.Publish(events.Status, map[string]interface{}{
		"message": fmt.Sprintf("Review and submit inquiry for %s. Waiting %s...", l.Address, s.reviewWait),
	})
	time.Sleep(s.reviewWait)

	now := time.Now()
	if err := s.store.MarkContacted(l.URL, now); err != nil {
		s.logger.Warn("[inquiry] Could not record contact for %s: %v", l.Address, err)
	}
	task.State = models.InquiryConfirmed
	task.ContactedAt = &now
	return task
}

// fillForm fills each inquiry field via its own fallback locator list,
// skipping fields whose source value is empty. A field missing from the
// page is not a fault.
func (s *Sequencer) fillForm(session fetch.Session, l models.Listing) error {
	message := InquiryMessage(l.Address, l.BrokerName, s.profile)

	fields := []struct {
		name      string
		selectors []string
		value     string
	}{
		{"message", streeteasy.MessageSelectors, message},
		{"name", streeteasy.NameSelectors, s.profile.Name},
		{"email", streeteasy.EmailSelectors, s.profile.Email},
		{"phone", streeteasy.PhoneSelectors, s.profile.Phone},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		filled, err := session.FillFirst(f.selectors, f.value)
		if err != nil {
			return fmt.Errorf("fill %s: %w", f.name, err)
		}
		if filled && f.name == "message" {
			s.bus.Publish(events.Status, map[string]interface{}{
				"message": fmt.Sprintf("Message filled for %s", l.Address),
			})
		}
	}
	return nil
}

func (s *Sequencer) fail(task models.InquiryTask, err error) models.InquiryTask {
	s.logger.Warn("[inquiry] %s failed: %v", task.Listing.Address, err)
	task.State = models.InquiryFailed
	task.Reason = err.Error()
	return task
}
