// Package contact defines a single address book entry and the validated
// value types it is built from.
package contact

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Sentinel errors. Callers match them with errors.Is; the returned errors
// wrap them with the offending value.
var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")

	ErrInvalidPhone  = fmt.Errorf("%w: phone number", ErrInvalidFormat)
	ErrInvalidDate   = fmt.Errorf("%w: date", ErrInvalidFormat)
	ErrPhoneNotFound = fmt.Errorf("phone number %w", ErrNotFound)
)

// PhoneDigits is the exact length of a valid phone number.
const PhoneDigits = 10

// BirthdayLayout is the textual form of a Birthday (DD.MM.YYYY).
const BirthdayLayout = "02.01.2006"

// PhoneNumber is a string of exactly PhoneDigits decimal digits.
type PhoneNumber string

// NewPhoneNumber validates s and returns it as a PhoneNumber.
func NewPhoneNumber(s string) (PhoneNumber, error) {
	if !isPhone(s) {
		return "", fmt.Errorf("%w: %q must have %d digits", ErrInvalidPhone, s, PhoneDigits)
	}
	return PhoneNumber(s), nil
}

func (p PhoneNumber) String() string {
	return string(p)
}

func isPhone(s string) bool {
	if len(s) != PhoneDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Birthday is a calendar date held at midnight UTC.
type Birthday struct {
	date time.Time
}

// ParseBirthday parses s in DD.MM.YYYY form.
// Impossible calendar dates such as 31.02.2024 are rejected.
func ParseBirthday(s string) (Birthday, error) {
	t, err := time.Parse(BirthdayLayout, s)
	if err != nil {
		return Birthday{}, fmt.Errorf("%w: %q must be DD.MM.YYYY", ErrInvalidDate, s)
	}
	return Birthday{date: t}, nil
}

// BirthdayFromDate builds a Birthday from calendar fields. Fields that do
// not form a real date (month 13, April 31) are rejected rather than
// normalized.
func BirthdayFromDate(year int, month time.Month, day int) (Birthday, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Birthday{}, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrInvalidDate, year, int(month), day)
	}
	return Birthday{date: t}, nil
}

// Date returns the year, month and day of the birthday.
func (b Birthday) Date() (year int, month time.Month, day int) {
	return b.date.Date()
}

// Time returns the birthday as midnight UTC.
func (b Birthday) Time() time.Time {
	return b.date
}

func (b Birthday) String() string {
	return b.date.Format(BirthdayLayout)
}

// Record is one contact: a fixed name, an ordered phone list and an
// optional birthday.
type Record struct {
	name     string
	phones   []PhoneNumber
	birthday *Birthday
}

// New creates a Record with no phones and no birthday.
func New(name string) (*Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}
	return &Record{name: name}, nil
}

// Name returns the record's name.
func (r *Record) Name() string {
	return r.name
}

// Phones returns a copy of the phone list in insertion order.
func (r *Record) Phones() []PhoneNumber {
	out := make([]PhoneNumber, len(r.phones))
	copy(out, r.phones)
	return out
}

// Birthday returns the birthday and whether one is set.
func (r *Record) Birthday() (Birthday, bool) {
	if r.birthday == nil {
		return Birthday{}, false
	}
	return *r.birthday, true
}

// AddPhone validates value and appends it to the phone list.
func (r *Record) AddPhone(value string) error {
	p, err := NewPhoneNumber(value)
	if err != nil {
		return err
	}
	r.phones = append(r.phones, p)
	return nil
}

// EditPhone replaces the first phone equal to old with next.
// next is validated before the list is searched.
func (r *Record) EditPhone(old, next string) error {
	p, err := NewPhoneNumber(next)
	if err != nil {
		return err
	}
	i := r.index(old)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrPhoneNotFound, old)
	}
	r.phones[i] = p
	return nil
}

// RemovePhone removes the first phone equal to value.
func (r *Record) RemovePhone(value string) error {
	i := r.index(value)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrPhoneNotFound, value)
	}
	r.phones = append(r.phones[:i], r.phones[i+1:]...)
	return nil
}

// FindPhone returns the first phone equal to value.
func (r *Record) FindPhone(value string) (PhoneNumber, bool) {
	i := r.index(value)
	if i < 0 {
		return "", false
	}
	return r.phones[i], true
}

// AddBirthday parses text as DD.MM.YYYY and sets it, replacing any
// previous birthday.
func (r *Record) AddBirthday(text string) error {
	b, err := ParseBirthday(text)
	if err != nil {
		return err
	}
	r.birthday = &b
	return nil
}

// SetBirthday sets an already validated birthday.
func (r *Record) SetBirthday(b Birthday) {
	r.birthday = &b
}

// Equal reports whether r and other hold the same name, phones (in order)
// and birthday date.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.name != other.name || !slices.Equal(r.phones, other.phones) {
		return false
	}
	a, aok := r.Birthday()
	b, bok := other.Birthday()
	return aok == bok && a.date.Equal(b.date)
}

// String renders the name and the semicolon-joined phones.
func (r *Record) String() string {
	parts := make([]string, len(r.phones))
	for i, p := range r.phones {
		parts[i] = string(p)
	}
	return fmt.Sprintf("Contact name: %s, phones: %s", r.name, strings.Join(parts, "; "))
}

func (r *Record) index(value string) int {
	for i, p := range r.phones {
		if string(p) == value {
			return i
		}
	}
	return -1
}
