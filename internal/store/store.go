// Package store persists an address book as a versioned YAML document.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/smileynet/addrbook/internal/book"
	"github.com/smileynet/addrbook/internal/contact"
)

// SchemaVersion is the document version written by Save and accepted by Load.
const SchemaVersion = 1

// dateLayout is the on-disk birthday form. It stores the date itself, not
// the text the user typed.
const dateLayout = "2006-01-02"

var (
	ErrUnsupportedVersion = errors.New("store: unsupported schema version")
	ErrCorrupt            = errors.New("store: corrupt address book")
)

// document is the on-disk layout.
type document struct {
	Version  int           `yaml:"version"`
	ID       string        `yaml:"id"`
	Contacts []contactData `yaml:"contacts"`
}

type contactData struct {
	Name     string   `yaml:"name"`
	Phones   []string `yaml:"phones,omitempty,flow"`
	Birthday string   `yaml:"birthday,omitempty"`
}

// FileStore loads and saves a Directory at a single path.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a FileStore for path. A nil logger discards output.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the address book. A missing file yields an empty Directory,
// not an error. opts are applied to the returned Directory.
func (s *FileStore) Load(opts ...book.Option) (*book.Directory, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("address book not found, starting empty", "path", s.path)
			return book.New(opts...), nil
		}
		return nil, fmt.Errorf("store: reading %s: %w", s.path, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return book.New(opts...), nil
		}
		return nil, fmt.Errorf("store: parsing %s: %w", s.path, err)
	}

	d, err := decode(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.logger.Debug("address book loaded", "path", s.path, "contacts", d.Len())
	return d, nil
}

// Save writes the whole Directory. The document is written to a temporary
// file in the same directory and renamed over the target.
func (s *FileStore) Save(d *book.Directory) error {
	data, err := yaml.Marshal(encode(d))
	if err != nil {
		return fmt.Errorf("store: marshaling: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".addrbook-*.yaml")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: replacing %s: %w", s.path, err)
	}

	s.logger.Debug("address book saved", "path", s.path, "contacts", d.Len())
	return nil
}

func encode(d *book.Directory) document {
	doc := document{
		Version:  SchemaVersion,
		ID:       d.ID().String(),
		Contacts: make([]contactData, 0, d.Len()),
	}
	for _, r := range d.Records() {
		c := contactData{Name: r.Name()}
		for _, p := range r.Phones() {
			c.Phones = append(c.Phones, p.String())
		}
		if b, ok := r.Birthday(); ok {
			c.Birthday = b.Time().Format(dateLayout)
		}
		doc.Contacts = append(doc.Contacts, c)
	}
	return doc
}

func decode(doc document, opts []book.Option) (*book.Directory, error) {
	if doc.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, doc.Version, SchemaVersion)
	}

	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q: %v", ErrCorrupt, doc.ID, err)
	}

	d := book.New(append([]book.Option{book.WithID(id)}, opts...)...)
	for i, c := range doc.Contacts {
		r, err := decodeContact(c)
		if err != nil {
			return nil, fmt.Errorf("%w: contact %d: %w", ErrCorrupt, i, err)
		}
		if _, dup := d.Find(r.Name()); dup {
			return nil, fmt.Errorf("%w: duplicate contact %q", ErrCorrupt, r.Name())
		}
		d.AddRecord(r)
	}
	return d, nil
}

func decodeContact(c contactData) (*contact.Record, error) {
	r, err := contact.New(c.Name)
	if err != nil {
		return nil, err
	}
	for _, p := range c.Phones {
		if err := r.AddPhone(p); err != nil {
			return nil, err
		}
	}
	if c.Birthday != "" {
		t, err := time.Parse(dateLayout, c.Birthday)
		if err != nil {
			return nil, fmt.Errorf("birthday %q: %w", c.Birthday, err)
		}
		b, err := contact.BirthdayFromDate(t.Date())
		if err != nil {
			return nil, err
		}
		r.SetBirthday(b)
	}
	return r, nil
}
