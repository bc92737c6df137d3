package errors

import "fmt"

// BotError is a bot error with a code and optional context
type BotError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Context interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap enables errors.Is and errors.As
func (e *BotError) Unwrap() error {
	return e.Err
}

// WithContext returns a copy of the error with context attached
func (e *BotError) WithContext(ctx interface{}) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Context: ctx,
	}
}

// WithError returns a copy of the error with an underlying cause
func (e *BotError) WithError(err error) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		Context: e.Context,
	}
}

// Predefined errors
var (
	// Zone errors
	ErrZoneNotFound = &BotError{
		Code:    "ZONE_NOT_FOUND",
		Message: "zone is not in the list of known zones",
	}

	ErrZoneListUnavailable = &BotError{
		Code:    "ZONE_LIST_UNAVAILABLE",
		Message: "zone list has not been loaded",
	}

	// Command argument errors
	ErrInvalidPrayerName = &BotError{
		Code:    "INVALID_PRAYER_NAME",
		Message: "prayer name is not one of the five daily prayers",
	}

	ErrInvalidLeadTime = &BotError{
		Code:    "INVALID_LEAD_TIME",
		Message: "alert lead time must be a positive number of minutes",
	}

	ErrInvalidUsername = &BotError{
		Code:    "INVALID_USERNAME",
		Message: "username is empty or malformed",
	}

	ErrBadCommandFormat = &BotError{
		Code:    "BAD_COMMAND_FORMAT",
		Message: "command arguments do not match the expected format",
	}

	// Timetable errors
	ErrNoTimetable = &BotError{
		Code:    "NO_TIMETABLE",
		Message: "no prayer timetable available for the zone",
	}

	ErrEmptyTimetable = &BotError{
		Code:    "EMPTY_TIMETABLE",
		Message: "prayer time source returned an empty timetable",
	}

	// System errors
	ErrDatabaseConnection = &BotError{
		Code:    "DATABASE_CONNECTION",
		Message: "database connection failed",
	}

	ErrConfigurationInvalid = &BotError{
		Code:    "CONFIGURATION_INVALID",
		Message: "configuration is invalid",
	}

	ErrTelegramAPI = &BotError{
		Code:    "TELEGRAM_API",
		Message: "Telegram API error",
	}

	ErrEngineStopped = &BotError{
		Code:    "ENGINE_STOPPED",
		Message: "scheduling engine is stopped",
	}
)

// NewBotError creates a new bot error
func NewBotError(code, message string) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps a plain error into a BotError
func Wrap(err error, code, message string) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsBotError reports whether err is a BotError
func IsBotError(err error) bool {
	_, ok := err.(*BotError)
	return ok
}

// GetBotError extracts a BotError from err
func GetBotError(err error) (*BotError, bool) {
	botErr, ok := err.(*BotError)
	return botErr, ok
}
