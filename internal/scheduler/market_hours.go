package scheduler

import (
	"fmt"
	"time"

	"KpiSentinel/internal/config"
)

type session struct {
	start, end int // minutes after midnight, end exclusive
}

// MarketHours reports whether the exchange is trading at a given instant.
type MarketHours struct {
	loc      *time.Location
	sessions []session
}

// ParseMarketHours builds the gate from a timezone name and "HH:MM-HH:MM" sessions.
func ParseMarketHours(timezone string, sessions []string) (*MarketHours, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	m := &MarketHours{loc: loc}
	for _, s := range sessions {
		start, end, err := config.ParseSession(s)
		if err != nil {
			return nil, err
		}
		m.sessions = append(m.sessions, session{start: start, end: end})
	}
	return m, nil
}

// Open reports whether t falls on a weekday inside any session.
func (m *MarketHours) Open(t time.Time) bool {
	local := t.In(m.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	for _, s := range m.sessions {
		if minute >= s.start && minute < s.end {
			return true
		}
	}
	return false
}
