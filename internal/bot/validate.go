package bot

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	phoneSeparators = regexp.MustCompile(`[ \-()]`)
	phonePattern    = regexp.MustCompile(`^(\+7|8)\d{10}$`)
)

// IsDigits reports whether text is non-empty and decimal digits only.
func IsDigits(text string) bool {
	if text == "" {
		return false
	}

	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// ParseAge accepts all-digit input strictly between 5 and 100.
func ParseAge(text string) (int, bool) {
	if !IsDigits(text) {
		return 0, false
	}

	age, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}

	if age <= 5 || age >= 100 {
		return 0, false
	}

	return age, true
}

// ParseCitizenship accepts trimmed free text of at least two characters.
func ParseCitizenship(text string) (string, bool) {
	citizenship := strings.TrimSpace(text)
	if len([]rune(citizenship)) < 2 {
		return "", false
	}

	return citizenship, true
}

// ParsePhone validates a phone number after stripping the usual separators
// (space, dash, parentheses): +7 or 8 followed by exactly ten digits. The
// trimmed original input is returned, as entered.
func ParsePhone(text string) (string, bool) {
	phone := strings.TrimSpace(text)
	normalized := phoneSeparators.ReplaceAllString(phone, "")

	if !phonePattern.MatchString(normalized) {
		return "", false
	}

	return phone, true
}
