// Package book implements the address book: a collection of contact
// records keyed by unique name and kept in insertion order.
package book

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smileynet/addrbook/internal/contact"
)

// DefaultUpcomingDays is the birthday window used when the caller gives none.
const DefaultUpcomingDays = 7

// ErrContactNotFound is returned when a name is not in the directory.
var ErrContactNotFound = fmt.Errorf("contact %w", contact.ErrNotFound)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (fn ClockFunc) Now() time.Time {
	return fn()
}

// LocalTime is the default Clock.
var LocalTime Clock = ClockFunc(time.Now)

// Option configures a Directory.
type Option func(*Directory)

// WithClock sets the clock used by UpcomingBirthdays.
func WithClock(c Clock) Option {
	return func(d *Directory) {
		d.clock = c
	}
}

// WithID sets the directory identity, typically when reloading a saved book.
func WithID(id uuid.UUID) Option {
	return func(d *Directory) {
		d.id = id
	}
}

// Directory owns a set of records keyed by name.
type Directory struct {
	id      uuid.UUID
	clock   Clock
	records map[string]*contact.Record
	order   []string
}

// New returns an empty Directory with a fresh identity.
func New(opts ...Option) *Directory {
	d := &Directory{
		id:      uuid.New(),
		clock:   LocalTime,
		records: make(map[string]*contact.Record),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the directory identity persisted alongside its records.
func (d *Directory) ID() uuid.UUID {
	return d.id
}

// Len returns the number of records.
func (d *Directory) Len() int {
	return len(d.order)
}

// AddRecord inserts r, replacing any record with the same name.
// A replaced record keeps its position in iteration order.
func (d *Directory) AddRecord(r *contact.Record) {
	name := r.Name()
	if _, ok := d.records[name]; !ok {
		d.order = append(d.order, name)
	}
	d.records[name] = r
}

// Find returns the record with exactly the given name.
func (d *Directory) Find(name string) (*contact.Record, bool) {
	r, ok := d.records[name]
	return r, ok
}

// Delete removes the record with the given name.
func (d *Directory) Delete(name string) error {
	if _, ok := d.records[name]; !ok {
		return fmt.Errorf("%w: %q", ErrContactNotFound, name)
	}
	delete(d.records, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// Records returns the records in insertion order.
func (d *Directory) Records() []*contact.Record {
	out := make([]*contact.Record, len(d.order))
	for i, name := range d.order {
		out[i] = d.records[name]
	}
	return out
}

// String joins the record summaries with newlines.
func (d *Directory) String() string {
	lines := make([]string, len(d.order))
	for i, name := range d.order {
		lines[i] = d.records[name].String()
	}
	return strings.Join(lines, "\n")
}
