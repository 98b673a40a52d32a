package calendar

import (
	"context"
	"time"

	"github.com/coursebill/coursebill/internal/cache"
	"github.com/coursebill/coursebill/internal/config"
	ierr "github.com/coursebill/coursebill/internal/errors"
)

// Calendar answers working-day questions for the configured country.
// The payment engine uses it to push the first lawful billing date off
// weekends and public holidays.
type Calendar interface {
	// IsWorkingDay returns true when date is neither a weekend day nor a
	// public holiday of the configured country
	IsWorkingDay(date time.Time) bool
	// NextWorkingDayOnOrAfter returns date itself when it is a working day,
	// otherwise the first working day after it. The time of day is preserved.
	NextWorkingDayOnOrAfter(date time.Time) time.Time
}

type countryCalendar struct {
	country  string
	cache    cache.Cache
	holidays func(year int) []time.Time
}

// NewCalendar builds the working-day calendar for the configured country.
// An unknown country is a configuration error and fails startup.
func NewCalendar(cfg *config.Configuration) (Calendar, error) {
	country := cfg.Calendar.Country
	cal := &countryCalendar{
		country: country,
		cache:   cache.NewInMemoryCache(),
	}

	switch country {
	case "FR":
		cal.holidays = franceHolidays
	default:
		return nil, ierr.NewError("unsupported calendar country").
			WithHintf("No working-day calendar is available for country %q", country).
			Mark(ierr.ErrValidation)
	}

	return cal, nil
}

func (c *countryCalendar) IsWorkingDay(date time.Time) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(date)
}

func (c *countryCalendar) NextWorkingDayOnOrAfter(date time.Time) time.Time {
	next := date
	for !c.IsWorkingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (c *countryCalendar) isHoliday(date time.Time) bool {
	for _, h := range c.holidaysForYear(date.Year()) {
		if h.Month() == date.Month() && h.Day() == date.Day() {
			return true
		}
	}
	return false
}

func (c *countryCalendar) holidaysForYear(year int) []time.Time {
	ctx := context.Background()
	key := cache.GenerateKey(cache.PrefixHolidays, c.country, year)
	if cached, found := c.cache.Get(ctx, key); found {
		if holidays, ok := cached.([]time.Time); ok {
			return holidays
		}
	}

	holidays := c.holidays(year)
	c.cache.Set(ctx, key, holidays, cache.DefaultExpiration)
	return holidays
}

// franceHolidays returns the French public holidays of a year: the fixed
// dates plus the Easter-derived movable feasts.
func franceHolidays(year int) []time.Time {
	date := func(month time.Month, day int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}

	easter := easterSunday(year)

	return []time.Time{
		date(time.January, 1),    // Jour de l'an
		easter.AddDate(0, 0, 1),  // Lundi de Paques
		date(time.May, 1),        // Fete du travail
		date(time.May, 8),        // Victoire 1945
		easter.AddDate(0, 0, 39), // Ascension
		easter.AddDate(0, 0, 50), // Lundi de Pentecote
		date(time.July, 14),      // Fete nationale
		date(time.August, 15),    // Assomption
		date(time.November, 1),   // Toussaint
		date(time.November, 11),  // Armistice 1918
		date(time.December, 25),  // Noel
	}
}

// easterSunday computes the Gregorian Easter date using the anonymous
// Meeus/Jones/Butcher algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
