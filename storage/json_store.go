package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ishan19r/apt-hunt/models"
)

// tracker is the on-disk shape of the JSON store.
type tracker struct {
	Apartments    []models.Listing `json:"apartments"`
	SentInquiries []string         `json:"sent_inquiries"`
}

// JSONStore persists listings to a single tracker file. It is safe for
// concurrent use; writes go through a temp file and rename.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates the store, making intermediate directories as
// needed. A missing tracker file reads as an empty store.
func NewJSONStore(path string) (*JSONStore, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("json store: create dir: %w", err)
		}
	}
	return &JSONStore{path: path}, nil
}

func (s *JSONStore) load() (*tracker, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &tracker{Apartments: []models.Listing{}, SentInquiries: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json store: read %q: %w", s.path, err)
	}

	t := &tracker{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("json store: parse %q: %w", s.path, err)
	}
	return t, nil
}

func (s *JSONStore) save(t *tracker) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("json store: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("json store: write temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("json store: rename: %w", err)
	}
	return nil
}

// LoadAll returns every stored listing.
func (s *JSONStore) LoadAll() ([]models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return nil, err
	}
	return t.Apartments, nil
}

// Get returns the listing with the given id.
func (s *JSONStore) Get(id int) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range t.Apartments {
		if t.Apartments[i].ID == id {
			l := t.Apartments[i]
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

// Append persists one listing with the next sequential id. Listings with
// an empty URL have no stable identity and are rejected.
func (s *JSONStore) Append(l models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return models.Listing{}, err
	}
	l = assign(t, l)
	t.Apartments = append(t.Apartments, l)
	return l, s.save(t)
}

// AppendBatch persists all listings from one run, assigning ids in order.
func (s *JSONStore) AppendBatch(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return err
	}
	for _, l := range listings {
		if l.URL == "" {
			continue
		}
		t.Apartments = append(t.Apartments, assign(t, l))
	}
	return s.save(t)
}

func assign(t *tracker, l models.Listing) models.Listing {
	maxID := 0
	for i := range t.Apartments {
		if t.Apartments[i].ID > maxID {
			maxID = t.Apartments[i].ID
		}
	}
	l.ID = maxID + 1
	if l.Status == "" {
		l.Status = models.StatusNew
	}
	return l
}

// ToggleSelected flips the operator's selection flag.
func (s *JSONStore) ToggleSelected(id int) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range t.Apartments {
		if t.Apartments[i].ID == id {
			t.Apartments[i].Selected = !t.Apartments[i].Selected
			l := t.Apartments[i]
			return &l, s.save(t)
		}
	}
	return nil, ErrNotFound
}

// Delete removes a listing by id.
func (s *JSONStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return err
	}
	kept := t.Apartments[:0]
	for _, l := range t.Apartments {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	t.Apartments = kept
	return s.save(t)
}

// MarkContacted stamps contacted status on the listing with the given URL.
func (s *JSONStore) MarkContacted(url string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return err
	}
	for i := range t.Apartments {
		if t.Apartments[i].URL == url {
			t.Apartments[i].Status = models.StatusContacted
			stamp := at
			t.Apartments[i].ContactedAt = &stamp
			t.SentInquiries = append(t.SentInquiries, url)
			return s.save(t)
		}
	}
	return ErrNotFound
}

// Close is a no-op for the file-backed store.
func (s *JSONStore) Close() error { return nil }
