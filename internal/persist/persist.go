// Package persist stores and restores cart snapshots. Each cart maps to one
// named slot in a key-value medium; the in-memory store stays authoritative
// and persistence is best effort.
package persist

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fairyhunter13/cart-service-simulator/internal/model"
)

// envelopeVersion guards the snapshot schema. A mismatch on load is treated
// the same as a missing slot.
const envelopeVersion = 1

// Adapter reads and writes the snapshot slot of a single cart.
//
// Load never fails the caller over bad stored data: a missing, corrupt, or
// schema-incompatible slot yields an empty item list and a nil error. Only
// infrastructure failures (I/O, connectivity) surface as errors, and callers
// treat those as warnings too.
type Adapter interface {
	Save(items []model.LineItem) error
	Load() ([]model.LineItem, error)
}

type envelope struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Items   []model.LineItem `json:"items"`
}

func encodeSnapshot(items []model.LineItem) ([]byte, error) {
	b, err := json.Marshal(envelope{Version: envelopeVersion, SavedAt: time.Now().UTC(), Items: items})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// decodeSnapshot returns (items, true) for a usable snapshot and (nil, false)
// for anything malformed.
func decodeSnapshot(b []byte) ([]model.LineItem, bool) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, false
	}
	if env.Version != envelopeVersion {
		return nil, false
	}
	seen := make(map[string]struct{}, len(env.Items))
	for _, it := range env.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, false
		}
		k := it.ProductID + "\x00" + it.VariantKey()
		if _, dup := seen[k]; dup {
			return nil, false
		}
		seen[k] = struct{}{}
	}
	return env.Items, true
}
