// Package resultstore keeps fit and sampling results on disk, keyed by the
// dataset content hash plus the run mode, so repeated runs over identical
// inputs are served from cache instead of being recomputed.
package resultstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resultstore: result not found")

// Result is one stored run. A fit run carries the MAP point in Params; a
// sampling run carries posterior draws.
type Result struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`

	LogDensity float64     `json:"log_density"`
	Params     []float64   `json:"params,omitempty"`
	Draws      [][]float64 `json:"draws,omitempty"`
}

// Store is a flat directory of JSON result files.
type Store struct {
	dir string
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("resultstore: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save writes the result under its key, assigning an ID and timestamp if
// unset. The write is atomic: a temp file renamed into place.
func (s *Store) Save(res *Result) error {
	if res.Key == "" {
		return errors.New("resultstore: empty key")
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("resultstore: encode %s: %w", res.Key, err)
	}
	tmp := s.path(res.Key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(res.Key))
}

// Load reads the result stored under key.
func (s *Store) Load(key string) (*Result, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("resultstore: decode %s: %w", key, err)
	}
	return &res, nil
}
