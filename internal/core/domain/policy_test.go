package domain

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		value   string
		minutes int
		wantErr bool
	}{
		{value: "00:00", minutes: 0},
		{value: "09:00", minutes: 540},
		{value: "9:05", minutes: 545},
		{value: "23:59", minutes: 1439},
		{value: " 18:00 ", minutes: 1080},
		{value: "24:00", wantErr: true},
		{value: "12:60", wantErr: true},
		{value: "-1:30", wantErr: true},
		{value: "noon", wantErr: true},
		{value: "12", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		minutes, err := ParseClock(tt.value)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidClock) {
				t.Errorf("ParseClock(%q): expected ErrInvalidClock, got %v", tt.value, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.value, err)
			continue
		}
		if minutes != tt.minutes {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.value, minutes, tt.minutes)
		}
	}
}

func TestAccessPolicyValidate(t *testing.T) {
	if err := (AccessPolicy{Start: "09:00", End: "18:00"}).Validate(); err != nil {
		t.Errorf("daytime window: %v", err)
	}
	if err := (AccessPolicy{Start: "22:00", End: "06:00"}).Validate(); err != nil {
		t.Errorf("wrapping window: %v", err)
	}
	if err := (AccessPolicy{Start: "09:00", End: "09:00"}).Validate(); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("degenerate window: expected ErrEmptyWindow, got %v", err)
	}
	if err := (AccessPolicy{Start: "bogus", End: "18:00"}).Validate(); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("malformed start: expected ErrInvalidClock, got %v", err)
	}
}

func TestIsWithinWindowDaytime(t *testing.T) {
	// 09:00 to 18:00, half-open at the end.
	start, end := 9*60, 18*60
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{8, 59, false},
		{9, 0, true},
		{12, 30, true},
		{17, 59, true},
		{18, 0, false},
		{23, 0, false},
	}
	for _, tt := range tests {
		got := IsWithinWindow(tt.hour*60+tt.minute, start, end)
		if got != tt.want {
			t.Errorf("IsWithinWindow(%02d:%02d, 09:00, 18:00) = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func TestIsWithinWindowWrapsMidnight(t *testing.T) {
	// 22:00 to 06:00 spans two calendar days.
	start, end := 22*60, 6*60
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{21, 59, false},
		{22, 0, true},
		{23, 30, true},
		{0, 0, true},
		{5, 59, true},
		{6, 0, false},
		{12, 0, false},
	}
	for _, tt := range tests {
		got := IsWithinWindow(tt.hour*60+tt.minute, start, end)
		if got != tt.want {
			t.Errorf("IsWithinWindow(%02d:%02d, 22:00, 06:00) = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}
