package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/events"
	"github.com/ishan19r/apt-hunt/models"
	"github.com/ishan19r/apt-hunt/scraper/streeteasy"
	"github.com/ishan19r/apt-hunt/services"
	"github.com/ishan19r/apt-hunt/storage"
	"github.com/ishan19r/apt-hunt/utils"
)

// Server exposes the operator API: stored listings (scored on read),
// criteria snapshots, pipeline triggers, and the live event stream.
type Server struct {
	store     storage.Store
	crawler   *services.Crawler
	sequencer *services.Sequencer
	runner    *services.Runner
	bus       *events.Bus
	logger    *utils.Logger
	budget    config.BudgetConfig
	profile   config.Profile

	mu       sync.RWMutex
	criteria config.Criteria
}

// New wires the API around the pipelines and store.
func New(store storage.Store, crawler *services.Crawler, sequencer *services.Sequencer,
	runner *services.Runner, bus *events.Bus, logger *utils.Logger,
	criteria config.Criteria, profile config.Profile, budget config.BudgetConfig) *Server {
	return &Server{
		store:     store,
		crawler:   crawler,
		sequencer: sequencer,
		runner:    runner,
		bus:       bus,
		logger:    logger,
		criteria:  criteria,
		profile:   profile,
		budget:    budget,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/apartments", s.listApartments).Methods(http.MethodGet)
	r.HandleFunc("/api/apartments", s.addApartment).Methods(http.MethodPost)
	r.HandleFunc("/api/apartments/{id:[0-9]+}/select", s.toggleSelect).Methods(http.MethodPost)
	r.HandleFunc("/api/apartments/{id:[0-9]+}", s.deleteApartment).Methods(http.MethodDelete)
	r.HandleFunc("/api/inquiry/{id:[0-9]+}", s.inquiryPreview).Methods(http.MethodGet)
	r.HandleFunc("/api/inquiry/{id:[0-9]+}/schedule", s.schedulePreview).Methods(http.MethodGet)
	r.HandleFunc("/api/inquiry/{id:[0-9]+}/negotiate", s.negotiationPreview).Methods(http.MethodGet)
	r.HandleFunc("/api/criteria", s.getCriteria).Methods(http.MethodGet)
	r.HandleFunc("/api/criteria", s.updateCriteria).Methods(http.MethodPut)
	r.HandleFunc("/api/scrape", s.startScrape).Methods(http.MethodPost)
	r.HandleFunc("/api/inquiries", s.startInquiries).Methods(http.MethodPost)
	r.HandleFunc("/api/events", s.streamEvents).Methods(http.MethodGet)

	return r
}

// snapshot returns the current criteria by value.
func (s *Server) snapshot() config.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

func (s *Server) listApartments(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.LoadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, services.ScoreAll(listings, s.snapshot(), s.budget))
}

type addApartmentRequest struct {
	Address      string `json:"address"`
	Rent         int    `json:"rent"`
	Neighborhood string `json:"neighborhood"`
	URL          string `json:"url"`
	ImageURL     string `json:"image_url"`
	BrokerName   string `json:"broker_name"`
	Notes        string `json:"notes"`
	NoFee        bool   `json:"no_fee"`
}

func (s *Server) addApartment(w http.ResponseWriter, r *http.Request) {
	var req addApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	url := streeteasy.AbsoluteURL(req.URL)
	if url == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}

	l, err := s.store.Append(models.Listing{
		URL:          url,
		Address:      req.Address,
		Rent:         req.Rent,
		Neighborhood: req.Neighborhood,
		ImageURL:     req.ImageURL,
		BrokerName:   req.BrokerName,
		Notes:        req.Notes,
		NoFee:        req.NoFee,
		Status:       models.StatusNew,
		DiscoveredAt: time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, services.ScoreListing(l, s.snapshot(), s.budget))
}

func (s *Server) toggleSelect(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	l, err := s.store.ToggleSelected(id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, services.ScoreListing(*l, s.snapshot(), s.budget))
}

func (s *Server) deleteApartment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := s.store.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) inquiryPreview(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	l, err := s.store.Get(id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   services.InquiryMessage(l.Address, l.BrokerName, s.profile),
		"apartment": services.ScoreListing(*l, s.snapshot(), s.budget),
	})
}

// schedulePreview drafts a reply to a viewing proposal. ?method=facetime
// asks for a remote tour; anything else proposes an in-person slot.
func (s *Server) schedulePreview(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	l, err := s.store.Get(id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	method := r.URL.Query().Get("method")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": services.ScheduleResponse(brokerOrDefault(l.BrokerName), method, s.profile),
		"method":  method,
	})
}

// negotiationPreview drafts a counter-offer. ?target=N sets the proposed
// rent; it defaults to $100 under the asking rent.
func (s *Server) negotiationPreview(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	l, err := s.store.Get(id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	target := l.Rent - 100
	if raw := r.URL.Query().Get("target"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("target must be a positive rent"))
			return
		}
		target = n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": services.NegotiationMessage(brokerOrDefault(l.BrokerName), target, s.profile),
		"target":  target,
	})
}

func brokerOrDefault(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func (s *Server) getCriteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

// updateCriteria replaces the criteria snapshot. A crawl already running
// keeps the copy it started with; the next run picks up the new one.
func (s *Server) updateCriteria(w http.ResponseWriter, r *http.Request) {
	updated := s.snapshot()
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.criteria = updated
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) startScrape(w http.ResponseWriter, r *http.Request) {
	if !s.runner.TryAcquire(services.PipelineCrawl) {
		writeError(w, http.StatusConflict, fmt.Errorf("a crawl run is already active"))
		return
	}

	cr := s.snapshot()
	go func() {
		defer s.runner.Release(services.PipelineCrawl)
		if _, err := s.crawler.Run(context.Background(), cr, s.budget); err != nil {
			s.logger.Error("[server] Crawl run failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type inquiriesRequest struct {
	ApartmentIDs []int `json:"apartment_ids"`
}

func (s *Server) startInquiries(w http.ResponseWriter, r *http.Request) {
	var req inquiriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	all, err := s.store.LoadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	wanted := make(map[int]bool, len(req.ApartmentIDs))
	for _, id := range req.ApartmentIDs {
		wanted[id] = true
	}
	var selected []models.Listing
	for _, l := range all {
		if wanted[l.ID] {
			selected = append(selected, l)
		}
	}

	if !s.runner.TryAcquire(services.PipelineInquiry) {
		writeError(w, http.StatusConflict, fmt.Errorf("an inquiry run is already active"))
		return
	}

	go func() {
		defer s.runner.Release(services.PipelineInquiry)
		if _, err := s.sequencer.Run(context.Background(), selected); err != nil {
			s.logger.Error("[server] Inquiry run failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"count":  len(selected),
	})
}

// streamEvents bridges the bus onto a server-sent-events response.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
