package sessions

import (
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/internal/utils"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// NormalizePhone strips formatting and checks the number has 10 to 15 digits.
func NormalizePhone(raw string) (string, error) {
	digits := utils.DigitsOnly(raw)
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", errors.Wrapf(errors.ErrInvalidPhone, "%q must have %d-%d digits", raw, minPhoneDigits, maxPhoneDigits)
	}
	return digits, nil
}
