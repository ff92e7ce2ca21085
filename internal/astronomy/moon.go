// Package astronomy computes the moon phase for a calendar date and answers
// queries against a catalog of upcoming celestial events.
package astronomy

import (
	"math"
	"time"
)

// Synodic-month approximation constants.
const (
	synodicMonth = 29.5305882
	epochOffset  = 694039.09
)

// MoonPhase names one of the eight phases of the lunar cycle.
type MoonPhase struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

var phases = [8]MoonPhase{
	{Index: 0, Name: "New Moon", Glyph: "🌑"},
	{Index: 1, Name: "Waxing Crescent", Glyph: "🌒"},
	{Index: 2, Name: "First Quarter", Glyph: "🌓"},
	{Index: 3, Name: "Waxing Gibbous", Glyph: "🌔"},
	{Index: 4, Name: "Full Moon", Glyph: "🌕"},
	{Index: 5, Name: "Waning Gibbous", Glyph: "🌖"},
	{Index: 6, Name: "Last Quarter", Glyph: "🌗"},
	{Index: 7, Name: "Waning Crescent", Glyph: "🌘"},
}

// Phases returns the phase table in cycle order.
func Phases() []MoonPhase {
	out := make([]MoonPhase, len(phases))
	copy(out, phases[:])
	return out
}

// PhaseFor returns the moon phase for t's calendar date in t's location.
// Time of day is ignored.
func PhaseFor(t time.Time) MoonPhase {
	year, month, day := t.Date()
	return PhaseForDate(year, month, day)
}

// PhaseForDate returns the moon phase for a calendar date.
func PhaseForDate(year int, month time.Month, day int) MoonPhase {
	return phases[PhaseIndex(year, month, day)]
}

// PhaseIndex returns the index (0-7) into the phase table for a calendar date.
// The formula must stay bit-for-bit stable; clients compare against it.
func PhaseIndex(year int, month time.Month, day int) int {
	y := year
	m := int(month)
	if m < 3 {
		y--
		m += 12
	}
	m++

	c := 365.25 * float64(y)
	e := 30.6 * float64(m)
	jd := c + e + float64(day) - epochOffset
	jd /= synodicMonth

	b := math.Floor(jd)
	jd -= b

	idx := int(math.Round(jd * 8))
	if idx >= 8 {
		idx = 0
	}
	return idx
}
