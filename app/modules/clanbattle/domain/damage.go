package clanbattledomain

import (
	"regexp"
	"strconv"
)

var damagePattern = regexp.MustCompile(`^[0-9]+$`)

// ParseDamage accepts only plain decimal digits. Anything else, including
// signs, separators and surrounding text, is rejected rather than coerced.
func ParseDamage(text string) (int64, error) {
	if !damagePattern.MatchString(text) {
		return 0, ErrInvalidDamage
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, ErrInvalidDamage
	}
	return v, nil
}

// IsDamageText reports whether text would be accepted by ParseDamage's pattern.
func IsDamageText(text string) bool {
	return damagePattern.MatchString(text)
}
