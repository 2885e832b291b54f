package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for request fields.
const (
	maxNameLen       = 200
	maxCodeLen       = 50
	maxDescLen       = 2_000
	maxLabelLen      = 100
	maxPhoneLen      = 30
	maxSettingKeyLen = 100
	maxSlotBatch     = 1_000
)

// validateNode checks node form inputs and returns the first error found.
func validateNode(name, code, description string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(code) > maxCodeLen {
		return "Code is too long (max 50 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescLen {
		return "Description is too long (max 2,000 characters)."
	}
	return ""
}

// validateSlotLabel checks a slot label.
func validateSlotLabel(label string) string {
	if label == "" {
		return "Label is required."
	}
	if utf8.RuneCountInString(label) > maxLabelLen {
		return "Label is too long (max 100 characters)."
	}
	return ""
}

// validateBooking checks booking form inputs.
func validateBooking(devoteeName, devoteePhone string) string {
	devoteeName = strings.TrimSpace(devoteeName)
	if devoteeName == "" {
		return "Devotee name is required."
	}
	if utf8.RuneCountInString(devoteeName) > maxNameLen {
		return "Devotee name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(devoteePhone) > maxPhoneLen {
		return "Phone number is too long (max 30 characters)."
	}
	return ""
}

// validateSettingKey checks one settings map key.
func validateSettingKey(key string) string {
	if strings.TrimSpace(key) == "" {
		return "Setting keys must not be empty."
	}
	if utf8.RuneCountInString(key) > maxSettingKeyLen {
		return "Setting key is too long (max 100 characters)."
	}
	return ""
}
