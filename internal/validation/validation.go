package validation

import (
	"regexp"
	"strconv"
	"strings"

	"muezzin_reminder_bot/internal/prayer"
	"muezzin_reminder_bot/pkg/errors"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// ValidatePrayerName resolves a user-supplied prayer name to its
// canonical form, matching case-insensitively.
func ValidatePrayerName(name string) (string, error) {
	if name == "" {
		return "", errors.ErrInvalidPrayerName.WithContext("prayer name cannot be empty")
	}

	canonical, ok := prayer.Canonical(name)
	if !ok {
		return "", errors.ErrInvalidPrayerName.WithContext(map[string]interface{}{
			"input":  name,
			"reason": "must be one of Fajr, Dhuhr, Asr, Maghrib, Isha",
		})
	}

	return canonical, nil
}

// ValidateZone checks a zone identifier against the known zone list.
func ValidateZone(zone string, knownZones []string) error {
	if zone == "" {
		return errors.ErrZoneNotFound.WithContext("zone cannot be empty")
	}

	if len(knownZones) == 0 {
		return errors.ErrZoneListUnavailable
	}

	for _, z := range knownZones {
		if strings.EqualFold(z, zone) {
			return nil
		}
	}

	return errors.ErrZoneNotFound.WithContext(map[string]interface{}{
		"zone": zone,
	})
}

// ValidateLeadMinutes parses and validates an alert lead time in minutes.
func ValidateLeadMinutes(minutesStr string) (int, error) {
	if minutesStr == "" {
		return 0, errors.ErrInvalidLeadTime.WithContext("lead time cannot be empty")
	}

	minutes, err := strconv.Atoi(minutesStr)
	if err != nil {
		return 0, errors.ErrInvalidLeadTime.WithError(err).WithContext(map[string]interface{}{
			"input": minutesStr,
		})
	}

	if minutes <= 0 {
		return 0, errors.ErrInvalidLeadTime.WithContext(map[string]interface{}{
			"input":  minutesStr,
			"reason": "lead time must be positive",
		})
	}

	if minutes > 24*60 {
		return 0, errors.ErrInvalidLeadTime.WithContext(map[string]interface{}{
			"input":  minutesStr,
			"reason": "lead time cannot exceed one day",
		})
	}

	return minutes, nil
}

// ValidateUsername validates a muezzin username, stripping a leading @.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimPrefix(username, "@")

	if username == "" {
		return "", errors.ErrInvalidUsername.WithContext("username cannot be empty")
	}

	if !usernameRegex.MatchString(username) {
		return "", errors.ErrInvalidUsername.WithContext(map[string]interface{}{
			"input":  username,
			"reason": "usernames are letters, digits and underscores, at most 32 characters",
		})
	}

	return username, nil
}

// ValidateChatID validates a Telegram chat ID. Group chat IDs are
// negative, so any non-zero value is accepted.
func ValidateChatID(chatID int64) error {
	if chatID == 0 {
		return errors.NewBotError("INVALID_CHAT_ID", "chat ID cannot be zero")
	}
	return nil
}
