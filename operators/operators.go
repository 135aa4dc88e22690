// Package operators holds the humans who manage bots through the admin surface.
package operators

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// Role decides how many bots an operator may run and what they may manage.
type Role string

const (
	RoleFree      Role = "free"      // One bot
	RolePremium   Role = "premium"   // Three bots
	RoleVIP       Role = "vip"       // Five bots
	RoleDeveloper Role = "developer" // Unlimited bots, manages every session and operator
)

// Unlimited is the bot limit of roles without one.
const Unlimited = -1

var roleLimits = map[Role]int{
	RoleFree:      1,
	RolePremium:   3,
	RoleVIP:       5,
	RoleDeveloper: Unlimited,
}

// Roles lists every role, smallest limit first.
func Roles() []Role {
	return []Role{RoleFree, RolePremium, RoleVIP, RoleDeveloper}
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidRole, "%q (valid: free, premium, vip, developer)", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleLimits[r]
	return ok
}

// Limit is the number of bots the role may own, or Unlimited.
func (r Role) Limit() int {
	limit, ok := roleLimits[r]
	if !ok {
		return 0
	}
	return limit
}

type Operator struct {
	ID           string    `toml:"id" json:"id"`
	Username     string    `toml:"username" json:"username"`
	Email        string    `toml:"email,omitempty" json:"email,omitempty"` // Matched against the SSO identity
	PasswordHash string    `toml:"password_hash,omitempty" json:"-"`       // Never serialised to clients
	Role         Role      `toml:"role" json:"role"`
	Owner        bool      `toml:"owner,omitempty" json:"owner,omitempty"` // The bootstrap operator, always a developer
	Bots         []string  `toml:"bots" json:"bots"`
	CreatedAt    time.Time `toml:"created_at" json:"created_at"`
	LastLogin    time.Time `toml:"last_login" json:"last_login,omitempty"`
}

func (o *Operator) IsDeveloper() bool {
	return o.Role == RoleDeveloper
}

// OwnsBot reports whether phone is one of the operator's bots.
func (o *Operator) OwnsBot(phone string) bool {
	return slices.Contains(o.Bots, phone)
}

// CanManage reports whether the operator may act on the bot for phone.
func (o *Operator) CanManage(phone string) bool {
	return o.IsDeveloper() || o.OwnsBot(phone)
}

// CanAddBot reports whether the role limit leaves room for another bot.
func (o *Operator) CanAddBot() bool {
	limit := o.Role.Limit()
	return limit == Unlimited || len(o.Bots) < limit
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (o *Operator) Clone() *Operator {
	if o == nil {
		return nil
	}
	c := *o
	c.Bots = append([]string{}, o.Bots...)
	return &c
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
