package source

import (
	"sync"
	"time"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// Snapshot is the dataset as of its last successful load. Its samples are
// shared between readers and must not be modified.
type Snapshot struct {
	Result   models.ParseResult `json:"result"`
	Origin   string             `json:"origin"`
	LoadedAt time.Time          `json:"loaded_at"`
}

// Dataset holds the current document for requests that do not upload one.
type Dataset struct {
	mu      sync.RWMutex
	current Snapshot
	loaded  bool
}

func NewDataset() *Dataset {
	return &Dataset{}
}

// Set replaces the current document.
func (d *Dataset) Set(result models.ParseResult, origin string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = Snapshot{Result: result, Origin: origin, LoadedAt: time.Now()}
	d.loaded = true
}

// Snapshot returns the current document, or false before the first load.
func (d *Dataset) Snapshot() (Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current, d.loaded
}
