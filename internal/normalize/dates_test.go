package normalize

import (
	"testing"
	"time"
)

func withLocal(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func TestParseDateDateOnlyKeepsCalendarDay(t *testing.T) {
	for _, zone := range []string{"UTC", "America/Los_Angeles", "Pacific/Honolulu", "Asia/Tokyo", "Pacific/Kiritimati"} {
		t.Run(zone, func(t *testing.T) {
			withLocal(t, zone)

			jan, ok := ParseDate("2024-01-31")
			if !ok {
				t.Fatal("expected 2024-01-31 to parse")
			}
			feb, ok := ParseDate("2024-02-01")
			if !ok {
				t.Fatal("expected 2024-02-01 to parse")
			}

			if jan.Year() != 2024 || jan.Month() != time.January || jan.Day() != 31 {
				t.Errorf("2024-01-31 parsed as %v", jan)
			}
			if feb.Year() != 2024 || feb.Month() != time.February || feb.Day() != 1 {
				t.Errorf("2024-02-01 parsed as %v", feb)
			}
		})
	}
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-01-31", true},
		{"2024-01-31T10:20:30Z", true},
		{"2024-01-31T10:20:30.123+02:00", true},
		{"2024-01-31T10:20:30", true},
		{"2024-01-31 10:20:30", true},
		{"  2024-01-31  ", true},
		{"2024-13-01", false},
		{"31/01/2024", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if _, ok := ParseDate(tt.in); ok != tt.ok {
				t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestDisplayDate(t *testing.T) {
	tests := map[string]string{
		"2024-01-31":           "2024-01-31",
		"2024-01-31T23:59:00Z": "2024-01-31",
		"Jan 31":               "Jan 31",
		"":                     "",
	}
	for in, want := range tests {
		if got := DisplayDate(in); got != want {
			t.Errorf("DisplayDate(%q) = %q, want %q", in, got, want)
		}
	}
}
