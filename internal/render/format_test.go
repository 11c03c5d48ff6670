package render

import (
	"testing"
	"time"
)

func TestFormatterTimestamp(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	tests := []struct {
		name   string
		locale string
		loc    *time.Location
		raw    string
		want   string
	}{
		{"hebrew utc", "he-IL", time.UTC, "2025-01-12T14:30:00Z", "12.01.2025, 14:30"},
		{"hebrew local", "he-IL", jerusalem, "2025-01-12T14:30:00Z", "12.01.2025, 16:30"},
		{"naive iso", "he-IL", time.UTC, "2025-01-12T08:05:09.123456", "12.01.2025, 08:05"},
		{"english", "en-US", time.UTC, "2025-01-12T14:30:00Z", "01/12/2025, 14:30"},
		{"unknown locale", "xx", time.UTC, "2025-01-12T14:30:00Z", "12.01.2025, 14:30"},
		{"unparsable", "he-IL", time.UTC, "yesterday", "yesterday"},
		{"empty", "he-IL", time.UTC, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFormatter(tt.locale, tt.loc).Timestamp(tt.raw)
			if got != tt.want {
				t.Errorf("Timestamp(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatterDate(t *testing.T) {
	tests := []struct {
		locale string
		raw    string
		want   string
	}{
		{"he-IL", "2025-01-12", "12 בינואר 2025"},
		{"he", "2024-12-03", "3 בדצמבר 2024"},
		{"en-GB", "2025-03-01", "March 1, 2025"},
		{"he-IL", "not a date", "not a date"},
	}

	for _, tt := range tests {
		got := NewFormatter(tt.locale, time.UTC).Date(tt.raw)
		if got != tt.want {
			t.Errorf("Date(%q, %q) = %q, want %q", tt.locale, tt.raw, got, tt.want)
		}
	}
}
