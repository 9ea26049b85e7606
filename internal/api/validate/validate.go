package validate

import (
	"fmt"
	"regexp"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserID must be lowercase letters, digits, underscore or hyphen, 1-36 chars.
var userIDRx = regexp.MustCompile(`^[a-z0-9_-]{1,36}$`)

// dateRx and timeRx cover the client-supplied reminder fields.
var (
	dateRx = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRx = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("invalid userId; allowed lowercase letters, digits, underscore, hyphen, max 36 chars")
	}
	return nil
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

func Date(v string) error {
	if !dateRx.MatchString(v) {
		return fmt.Errorf("invalid date; expected YYYY-MM-DD")
	}
	return nil
}

func TimeOfDay(v string) error {
	if !timeRx.MatchString(v) {
		return fmt.Errorf("invalid time; expected HH:MM")
	}
	return nil
}
