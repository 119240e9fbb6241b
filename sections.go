package protectedconfig

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/illarion/protectedconfig/internal/storage"
)

// SectionState describes a stored section without decrypting it.
type SectionState struct {
	Name      string
	Protected bool
	Provider  string
	Modified  time.Time
}

// SectionStore is a small reference host: it keeps named configuration
// sections in a BBolt file and protects or unprotects them with a Provider.
// The Provider is owned by the caller.
type SectionStore struct {
	mu       sync.RWMutex
	db       *storage.Storage
	provider *Provider
}

// OpenSectionStore opens or creates the section database at path.
func OpenSectionStore(path string, p *Provider) (*SectionStore, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: provider is nil", ErrInvalidArgument)
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return &SectionStore{db: db, provider: p}, nil
}

// Close closes the database. The provider is left open.
func (s *SectionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// PutSection stores a plaintext section, replacing any previous value.
func (s *SectionStore) PutSection(name, fragment string) error {
	if err := checkFragment(fragment); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.PutSection(storage.Section{Name: name, Value: fragment})
}

// ProtectSection encrypts a stored plaintext section in place.
func (s *SectionStore) ProtectSection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.db.GetSection(name)
	if err != nil {
		return err
	}
	if sec.Protected {
		return fmt.Errorf("%w: %s is protected by %s", ErrAlreadyProtected, name, sec.Provider)
	}

	node, err := s.provider.Protect(sec.Value)
	if err != nil {
		return fmt.Errorf("failed to protect section %s: %w", name, err)
	}

	s.provider.logger.Info("section protected", zap.String("section", name), zap.String("provider", s.provider.Name()))
	return s.db.PutSection(storage.Section{
		Name:      name,
		Value:     node.String(),
		Protected: true,
		Provider:  s.provider.Name(),
	})
}

// UnprotectSection decrypts a stored protected section in place.
func (s *SectionStore) UnprotectSection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.db.GetSection(name)
	if err != nil {
		return err
	}
	if !sec.Protected {
		return fmt.Errorf("%w: %s", ErrNotProtected, name)
	}

	fragment, err := s.unprotect(sec)
	if err != nil {
		return err
	}

	s.provider.logger.Info("section unprotected", zap.String("section", name))
	return s.db.PutSection(storage.Section{Name: name, Value: fragment})
}

// Section returns the plaintext of a section, decrypting it if it is protected.
// The stored value is left unchanged.
func (s *SectionStore) Section(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, err := s.db.GetSection(name)
	if err != nil {
		return "", err
	}
	if !sec.Protected {
		return sec.Value, nil
	}
	return s.unprotect(sec)
}

// RawSection returns the stored value as is: plaintext or an EncryptedData element.
func (s *SectionStore) RawSection(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, err := s.db.GetSection(name)
	if err != nil {
		return "", err
	}
	return sec.Value, nil
}

// State reports whether a section is protected and by which provider.
func (s *SectionStore) State(name string) (SectionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, err := s.db.GetSection(name)
	if err != nil {
		return SectionState{}, err
	}
	return SectionState{
		Name:      sec.Name,
		Protected: sec.Protected,
		Provider:  sec.Provider,
		Modified:  sec.Modified,
	}, nil
}

// Sections lists the stored section names.
func (s *SectionStore) Sections() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.SectionNames()
}

// Modified returns when a section was last stored or removed.
func (s *SectionStore) Modified() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.GetModified()
}

// RemoveSection deletes a section.
func (s *SectionStore) RemoveSection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteSection(name)
}

// Compact reclaims space left by removed sections.
func (s *SectionStore) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Compact()
}

// Diff compares the plaintext of a stored section with fragment line by line.
// Unchanged lines are prefixed with "  ", removed lines with "- " and added
// lines with "+ ". The result is empty when both are equal.
func (s *SectionStore) Diff(name, fragment string) (string, error) {
	current, err := s.Section(name)
	if err != nil {
		return "", err
	}
	if current == fragment {
		return "", nil
	}
	return lineDiff(current, fragment), nil
}

func (s *SectionStore) unprotect(sec *storage.Section) (string, error) {
	if name := s.provider.Name(); sec.Provider != "" && sec.Provider != name {
		return "", fmt.Errorf("%w: section %s is protected by provider %q, not %q", ErrConfiguration, sec.Name, sec.Provider, name)
	}

	node, err := ParseEncryptedData(sec.Value)
	if err != nil {
		return "", err
	}
	fragment, err := s.provider.Unprotect(node)
	if err != nil {
		return "", fmt.Errorf("failed to unprotect section %s: %w", sec.Name, err)
	}
	return fragment, nil
}

func lineDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
