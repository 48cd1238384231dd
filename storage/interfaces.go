package storage

import (
	"errors"
	"time"

	"github.com/ishan19r/apt-hunt/models"
)

// ErrNotFound reports a lookup for an id that does not exist.
var ErrNotFound = errors.New("storage: listing not found")

// Store is the append-friendly listing log. Existing records are never
// edited beyond contacted status and the operator's selection flag.
type Store interface {
	LoadAll() ([]models.Listing, error)
	Get(id int) (*models.Listing, error)
	// Append persists one listing, assigning its id.
	Append(l models.Listing) (models.Listing, error)
	// AppendBatch persists a crawl run's accepted records in one shot.
	AppendBatch(listings []models.Listing) error
	ToggleSelected(id int) (*models.Listing, error)
	Delete(id int) error
	MarkContacted(url string, at time.Time) error
	Close() error
}
