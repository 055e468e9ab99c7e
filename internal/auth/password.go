// internal/auth/password.go
package auth

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func IsPasswordComplex(password string) bool {
	if len(password) < 8 {
		return false
	}
	var (
		hasLetter bool
		hasDigit  bool
		hasSymbol bool
	)
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSymbol = true
		}
	}
	return hasLetter && hasDigit && hasSymbol
}

var nonAlphaSpaceDash = regexp.MustCompile(`[^\p{L}\s-]`)

func SanitizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 {
		return ""
	}
	cleaned := nonAlphaSpaceDash.ReplaceAllString(trimmed, "")
	if len(cleaned) == 0 {
		return ""
	}
	r := []rune(cleaned)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
