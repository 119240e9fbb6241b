package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")
	SectionsBucket = []byte("sections")
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
)

const formatVersion = "1"

// ErrSectionNotFound is returned when a section name is not stored.
var ErrSectionNotFound = errors.New("section not found")

// Section is a stored configuration section.
type Section struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Protected bool      `json:"protected"`
	Provider  string    `json:"provider,omitempty"`
	Modified  time.Time `json:"modified"`
}

// Storage provides BBolt-based storage for configuration sections.
// It is safe for concurrent use; Compact and Close exclude all other calls.
type Storage struct {
	mu sync.RWMutex
	db *bolt.DB
}

// Open opens or creates a section database and makes sure its buckets exist.
func Open(path string) (*Storage, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func openDB(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
}

// Close closes the database
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Storage) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, SectionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(formatVersion)); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

func (s *Storage) view(fn func(tx *bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.View(fn)
}

func (s *Storage) update(fn func(tx *bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Update(fn)
}

// PutSection stores or replaces a section and updates the modified timestamp.
func (s *Storage) PutSection(sec Section) error {
	if sec.Name == "" {
		return fmt.Errorf("section name must not be empty")
	}
	if sec.Modified.IsZero() {
		sec.Modified = time.Now()
	}

	data, err := json.Marshal(sec)
	if err != nil {
		return err
	}

	return s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(SectionsBucket).Put([]byte(sec.Name), data); err != nil {
			return err
		}
		modified, _ := sec.Modified.MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
}

// GetSection returns a single section
func (s *Storage) GetSection(name string) (*Section, error) {
	var sec *Section
	err := s.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(SectionsBucket).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrSectionNotFound, name)
		}
		sec = &Section{}
		return json.Unmarshal(data, sec)
	})
	return sec, err
}

// DeleteSection removes a section and updates the modified timestamp.
func (s *Storage) DeleteSection(name string) error {
	return s.update(func(tx *bolt.Tx) error {
		sections := tx.Bucket(SectionsBucket)
		if sections.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrSectionNotFound, name)
		}
		if err := sections.Delete([]byte(name)); err != nil {
			return err
		}
		modified, _ := time.Now().MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
}

// SectionNames returns all stored section names in key order
func (s *Storage) SectionNames() ([]string, error) {
	var names []string
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(SectionsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// GetModified returns the time of the last section write or removal.
func (s *Storage) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// Compact rewrites the database without the free pages left by removed or
// re-encrypted sections. On failure the original file stays in place and the
// store remains open.
func (s *Storage) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.db.Path()
	tmpPath := path + ".compact"
	os.Remove(tmpPath)

	if err := s.copyTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close database: %w", err)
	}

	swapErr := replaceFile(path, tmpPath)

	db, err := openDB(path)
	if err != nil {
		return errors.Join(swapErr, fmt.Errorf("failed to reopen database: %w", err))
	}
	s.db = db
	return swapErr
}

// copyTo writes the config and sections buckets into a fresh database at path.
func (s *Storage) copyTo(path string) error {
	dst, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			for _, name := range [][]byte{ConfigBucket, SectionsBucket} {
				src := srcTx.Bucket(name)
				if src == nil {
					continue
				}
				b, err := dstTx.CreateBucket(name)
				if err != nil {
					return err
				}
				// sections are written once, in key order
				b.FillPercent = 1
				if err := src.ForEach(b.Put); err != nil {
					return fmt.Errorf("failed to copy bucket %s: %w", name, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close compact database: %w", err)
	}
	return nil
}

// replaceFile moves tmpPath over path, keeping path intact if either rename fails.
func replaceFile(path, tmpPath string) error {
	backupPath := path + ".backup"
	if err := os.Rename(path, backupPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to back up database: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		if rerr := os.Rename(backupPath, path); rerr != nil {
			return fmt.Errorf("failed to replace database: %w (original left at %s: %w)", err, backupPath, rerr)
		}
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)
	return nil
}
