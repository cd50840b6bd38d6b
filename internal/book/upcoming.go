package book

import (
	"fmt"
	"time"

	"github.com/smileynet/addrbook/internal/contact"
)

// Upcoming is one contact whose birthday falls inside the window.
type Upcoming struct {
	Name string
	Date time.Time
}

// String renders the observed date as DD.MM.YYYY.
func (u Upcoming) String() string {
	return u.Date.Format(contact.BirthdayLayout)
}

// UpcomingBirthdays returns the contacts whose next birthday is between
// today and today+days inclusive, in directory order. The boolean is false
// when no contact matches.
//
// A Feb 29 birthday is observed on Mar 1 in common years. When this year's
// birthday has already passed, next year's occurrence is checked, so a
// window crossing Dec 31 sees January birthdays.
func (d *Directory) UpcomingBirthdays(days int) ([]Upcoming, bool, error) {
	if days < 0 {
		return nil, false, fmt.Errorf("%w: window must be non-negative, got %d days", contact.ErrInvalidArgument, days)
	}

	today := dateOf(d.clock.Now())
	var out []Upcoming
	for _, name := range d.order {
		b, ok := d.records[name].Birthday()
		if !ok {
			continue
		}
		next := nextOccurrence(b, today)
		delta := daysBetween(today, next)
		if delta >= 0 && delta <= days {
			out = append(out, Upcoming{Name: name, Date: next})
		}
	}
	return out, len(out) > 0, nil
}

// nextOccurrence returns the first date on or after today that celebrates b.
func nextOccurrence(b contact.Birthday, today time.Time) time.Time {
	occ := occurrenceIn(b, today.Year())
	if occ.Before(today) {
		occ = occurrenceIn(b, today.Year()+1)
	}
	return occ
}

// occurrenceIn places b's month and day in year. time.Date normalizes
// Feb 29 of a common year to Mar 1.
func occurrenceIn(b contact.Birthday, year int) time.Time {
	_, month, day := b.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// dateOf strips the clock time and zone, keeping the local calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
