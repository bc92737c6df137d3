package validation

import (
	"strings"
	"testing"

	"muezzin_reminder_bot/pkg/errors"
)

func TestValidatePrayerName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Fajr", "Fajr", false},
		{"fajr", "Fajr", false},
		{"ISHA", "Isha", false},
		{"maghrib", "Maghrib", false},
		{"", "", true},
		{"Subuh", "", true},
		{"lunch", "", true},
	}

	for _, tt := range tests {
		got, err := ValidatePrayerName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePrayerName(%q): unexpected error state: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidatePrayerName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateZone(t *testing.T) {
	zones := []string{"gombak", "kuala-lumpur", "petaling"}

	if err := ValidateZone("gombak", zones); err != nil {
		t.Errorf("expected gombak to validate: %v", err)
	}
	if err := ValidateZone("GOMBAK", zones); err != nil {
		t.Errorf("expected case-insensitive match: %v", err)
	}

	err := ValidateZone("atlantis", zones)
	botErr, ok := errors.GetBotError(err)
	if !ok || botErr.Code != errors.ErrZoneNotFound.Code {
		t.Errorf("expected ErrZoneNotFound for an unknown zone, got %v", err)
	}

	err = ValidateZone("gombak", nil)
	botErr, ok = errors.GetBotError(err)
	if !ok || botErr.Code != errors.ErrZoneListUnavailable.Code {
		t.Errorf("expected ErrZoneListUnavailable with no zone list, got %v", err)
	}

	if err := ValidateZone("", zones); err == nil {
		t.Error("expected an error for an empty zone")
	}
}

func TestValidateLeadMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"10", 10, false},
		{"1", 1, false},
		{"1440", 1440, false},
		{"1441", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ValidateLeadMinutes(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLeadMinutes(%q): unexpected error state: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateLeadMinutes(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"bilal", "bilal", false},
		{"@bilal", "bilal", false},
		{"User_99", "User_99", false},
		{"@", "", true},
		{"", "", true},
		{"has spaces", "", true},
		{"emoji🙂", "", true},
		{strings.Repeat("a", 33), "", true},
	}

	for _, tt := range tests {
		got, err := ValidateUsername(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateUsername(%q): unexpected error state: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateUsername(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateChatID(t *testing.T) {
	if err := ValidateChatID(12345); err != nil {
		t.Errorf("positive chat id rejected: %v", err)
	}
	if err := ValidateChatID(-100123456789); err != nil {
		t.Errorf("group chat id rejected: %v", err)
	}
	if err := ValidateChatID(0); err == nil {
		t.Error("expected an error for chat id 0")
	}
}
