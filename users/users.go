package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PrincipalType is the coarse kind of account. It is the only authorisation input
// the session layer understands.
type PrincipalType string

const (
	TypeCustomer PrincipalType = "customer"
	TypeSeller   PrincipalType = "seller"
	TypeAdmin    PrincipalType = "admin"
)

// Principal is the authenticated identity a credential represents
type Principal struct {
	ID           string        `json:"id" bson:"id"`
	Email        string        `json:"email" bson:"email"`
	FullName     string        `json:"full_name,omitempty" bson:"full_name,omitempty"`
	PasswordHash string        `json:"-" bson:"hashed_password"` // never serialize to clients
	Type         PrincipalType `json:"user_type" bson:"user_type"`
	Blocked      bool          `json:"blocked,omitempty" bson:"blocked,omitempty"`
	DateJoined   time.Time     `json:"date_joined,omitempty" bson:"date_joined,omitempty"`
	LastLogin    time.Time     `json:"last_login,omitempty" bson:"last_login,omitempty"`
}

// Is reports whether the principal is one of the given types
func (p *Principal) Is(types ...PrincipalType) bool {
	for _, t := range types {
		if p.Type == t {
			return true
		}
	}
	return false
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
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
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
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the principal's stored hash
func (p *Principal) CheckPassword(password string) bool {
	return p.PasswordHash != "" && CheckPasswordHash(password, p.PasswordHash)
}
