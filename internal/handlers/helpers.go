package handlers

import (
	"regexp"
	"strconv"
)

var (
	phoneRe = regexp.MustCompile(`^\+?\d{7,12}$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func validPhone(s string) bool {
	return phoneRe.MatchString(s)
}

func validEmail(s string) bool {
	return emailRe.MatchString(s)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
