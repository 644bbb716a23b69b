package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidClock indicates a wall-clock value that is not "HH:MM" 24h.
	ErrInvalidClock = errors.New("policy: invalid clock value")
	// ErrEmptyWindow indicates a policy whose start and end coincide.
	ErrEmptyWindow = errors.New("policy: start and end must differ")
)

// AccessPolicy restricts when non-privileged sessions may remain active.
// The window is expressed in local wall-clock time and may wrap midnight
// (start > end means the window spans two calendar days). A nil policy means
// no restriction.
type AccessPolicy struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Message string `json:"message"`
}

// ParseClock converts a "HH:MM" 24h string into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	return hour*60 + minute, nil
}

// Window returns the policy bounds in minutes since midnight.
func (p AccessPolicy) Window() (start, end int, err error) {
	start, err = ParseClock(p.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(p.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Validate rejects malformed or degenerate policies. A window whose start
// equals its end is treated as a misconfiguration rather than "open all day".
func (p AccessPolicy) Validate() error {
	start, end, err := p.Window()
	if err != nil {
		return err
	}
	if start == end {
		return ErrEmptyWindow
	}
	return nil
}

// IsWithinWindow reports whether nowMinutes falls inside the half-open
// window [startMinutes, endMinutes). When start exceeds end the window wraps
// midnight and the check becomes the union of the two day fragments.
func IsWithinWindow(nowMinutes, startMinutes, endMinutes int) bool {
	if startMinutes <= endMinutes {
		return nowMinutes >= startMinutes && nowMinutes < endMinutes
	}
	return nowMinutes >= startMinutes || nowMinutes < endMinutes
}
