package auth

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// HashPassword returns the bcrypt hash of a plaintext secret.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether the candidate matches the stored hash.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
