package domain

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrBadFIO    = errors.New("fio must contain only russian letters and spaces")
	ErrBadAge    = errors.New("age must be an integer between 1 and 100")
	ErrBadWeight = errors.New("weight must be a positive number")
)

// fioRe accepts Cyrillic letters (including ё/Ё) and whitespace, nothing else.
var fioRe = regexp.MustCompile(`^[а-яА-ЯёЁ\s]+$`)

// ValidateFIO checks a full-name input from the registration or edit flow.
func ValidateFIO(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || !fioRe.MatchString(s) {
		return "", ErrBadFIO
	}
	return s, nil
}

// ParseAge parses a base-10 age in [1, 100]. Signs, spaces inside the number
// and non-digit characters are rejected.
func ParseAge(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || !isAllDigits(s) {
		return 0, ErrBadAge
	}
	age, err := strconv.Atoi(s)
	if err != nil || age < 1 || age > 100 {
		return 0, ErrBadAge
	}
	return age, nil
}

// ParseWeight parses a positive decimal weight in kilograms, e.g. "1.5".
func ParseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return 0, ErrBadWeight
	}
	return w, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
