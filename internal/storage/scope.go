package storage

import (
	"fmt"
	"strings"
	"time"
)

// QueryScope is the filter state of one picker session
type QueryScope struct {
	RestrictToCwd bool
	Cwd           string

	RestrictToHost bool
	Hostname       string

	RestrictToSession bool
	SessionID         int64

	// Literal substring the command line must contain
	Contains string

	// Start-time window; Since is inclusive, Until exclusive
	Since *time.Time
	Until *time.Time

	// Maximum rows returned, 0 means unlimited
	Limit int
}

// Location is a named preset over the scope's restriction flags
type Location int

const (
	LocationSession Location = iota
	LocationDirectory
	LocationMachine
	LocationEverywhere
)

var locationNames = map[Location]string{
	LocationSession:    "session",
	LocationDirectory:  "directory",
	LocationMachine:    "machine",
	LocationEverywhere: "everywhere",
}

// String returns the lower-case name used by flags and config
func (l Location) String() string {
	if name, ok := locationNames[l]; ok {
		return name
	}
	return fmt.Sprintf("location(%d)", int(l))
}

// ParseLocation parses a location name, case-insensitively
func ParseLocation(s string) (Location, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for loc, name := range locationNames {
		if name == s {
			return loc, nil
		}
	}
	if s == "host" {
		return LocationMachine, nil
	}
	return 0, fmt.Errorf("unknown location %q (want session, directory, machine or everywhere)", s)
}

// Next returns the location after l in the cycle, skipping Session
// when hasSession is false.
func (l Location) Next(hasSession bool) Location {
	next := (l + 1) % (LocationEverywhere + 1)
	if next == LocationSession && !hasSession {
		next = LocationDirectory
	}
	return next
}

// Location reports the preset matching the scope's flags. Combinations that
// match no preset report the narrowest restriction that is set.
func (s QueryScope) Location() Location {
	switch {
	case s.RestrictToSession:
		return LocationSession
	case s.RestrictToCwd:
		return LocationDirectory
	case s.RestrictToHost:
		return LocationMachine
	default:
		return LocationEverywhere
	}
}

// WithLocation returns a copy of the scope with the restriction flags set for loc.
// Directory and Session keep the host restriction, as both imply this machine.
func (s QueryScope) WithLocation(loc Location) QueryScope {
	s.RestrictToSession = loc == LocationSession
	s.RestrictToCwd = loc == LocationDirectory
	s.RestrictToHost = loc != LocationEverywhere && s.Hostname != ""
	return s
}

// ToggleCwd returns a copy of the scope with the cwd restriction flipped.
// No other field changes.
func (s QueryScope) ToggleCwd() QueryScope {
	s.RestrictToCwd = !s.RestrictToCwd
	return s
}

// HasSession reports whether a session id is known
func (s QueryScope) HasSession() bool {
	return s.SessionID != 0
}
