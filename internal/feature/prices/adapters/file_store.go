package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/usecase"
)

const (
	filePrefix = "prices_"
	fileSuffix = ".json"
	// DefaultLockTTL is the age after which a lock file is treated as abandoned.
	DefaultLockTTL = 30 * time.Second
)

// observationRecord is the on-disk shape of one observation.
type observationRecord struct {
	Product string    `json:"product"`
	Price   float64   `json:"price"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url,omitempty"`
}

// FileStore keeps one JSON file per series under dir.
type FileStore struct {
	dir     string
	lockTTL time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// readFile and rename are os.ReadFile and os.Rename; replaced in tests to
	// simulate I/O failures.
	readFile func(name string) ([]byte, error)
	rename   func(oldpath, newpath string) error
}

var _ usecase.ObservationStore = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		dir:     dir,
		lockTTL: DefaultLockTTL,
		locks:    map[string]*sync.Mutex{},
		readFile: os.ReadFile,
		rename:   os.Rename,
	}, nil
}

// Load returns the stored series. A missing file is an empty series; an
// unreadable one is logged and also treated as empty.
func (s *FileStore) Load(ctx context.Context, seriesID string) (entity.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series, _, err := s.read(s.path(seriesID))
	if err != nil {
		slog.Warn("failed to read series file", "series", seriesID, "error", err)
		return entity.Series{}, nil
	}
	return series, nil
}

// Append merges obs into the series as one locked read-merge-write. The old
// file is kept as a backup until the new one is in place.
func (s *FileStore) Append(ctx context.Context, seriesID string, obs []entity.PriceObservation) (entity.Series, error) {
	mu := s.seriesLock(seriesID)
	mu.Lock()
	defer mu.Unlock()

	path := s.path(seriesID)
	release, err := acquireFileLock(ctx, path+".lock", s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	// An unreadable file is never overwritten.
	existing, corruptPath, err := s.read(path)
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", seriesID, err)
	}
	if len(obs) == 0 {
		return existing, nil
	}
	if corruptPath != "" {
		aside := fmt.Sprintf("%s.corrupt-%d", corruptPath, time.Now().Unix())
		if err := s.rename(corruptPath, aside); err != nil {
			return nil, fmt.Errorf("move malformed series %s aside: %w", seriesID, err)
		}
		slog.Warn("moved malformed series file aside", "path", aside)
	}

	merged := entity.Merge(existing, obs)
	if err := s.write(path, merged); err != nil {
		return nil, fmt.Errorf("write series %s: %w", seriesID, err)
	}
	return merged, nil
}

// List returns the IDs of all series files in the data directory.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) seriesLock(seriesID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entity.SeriesKey(seriesID)
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

func (s *FileStore) path(seriesID string) string {
	return filepath.Join(s.dir, filePrefix+entity.SeriesKey(seriesID)+fileSuffix)
}

// read loads path, falling back to a leftover backup when a previous write
// stopped between its two renames. corruptPath names the file that exists but
// could not be decoded; its series is empty. err reports a file that exists but
// could not be read.
func (s *FileStore) read(path string) (series entity.Series, corruptPath string, err error) {
	src := path
	b, err := s.readFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		src = path + ".bak"
		b, err = s.readFile(src)
		if errors.Is(err, fs.ErrNotExist) {
			return entity.Series{}, "", nil
		}
		if err == nil {
			slog.Warn("series file missing, recovered from backup", "path", path)
		}
	}
	if err != nil {
		return nil, "", err
	}

	var records []observationRecord
	if err := json.Unmarshal(b, &records); err != nil {
		slog.Warn("ignoring malformed series file", "path", src, "error", err)
		return entity.Series{}, src, nil
	}

	obs := make(entity.Series, 0, len(records))
	for _, r := range records {
		obs = append(obs, entity.PriceObservation{
			Product:   r.Product,
			Price:     r.Price,
			Timestamp: r.Date,
			SourceURL: r.URL,
		})
	}
	return entity.Merge(nil, obs), "", nil
}

func (s *FileStore) write(path string, series entity.Series) error {
	records := make([]observationRecord, 0, len(series))
	for _, o := range series {
		records = append(records, observationRecord{
			Product: o.Product,
			Price:   o.Price,
			Date:    o.Timestamp,
			URL:     o.SourceURL,
		})
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	backup := path + ".bak"
	hadOld := true
	if err := s.rename(path, backup); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("backup: %w", err)
		}
		hadOld = false
	}

	if err := s.rename(tmpPath, path); err != nil {
		if hadOld {
			if rerr := s.rename(backup, path); rerr != nil {
				slog.Error("failed to restore series backup", "path", path, "error", rerr)
			}
		}
		return fmt.Errorf("replace: %w", err)
	}

	if hadOld {
		if err := os.Remove(backup); err != nil {
			slog.Warn("failed to remove series backup", "path", backup, "error", err)
		}
	}
	return nil
}
