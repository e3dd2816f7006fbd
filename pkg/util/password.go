package util

import "golang.org/x/crypto/bcrypt"

// Cost 12 keeps a hash around 250ms on current hardware, slow enough
// for stored student credentials.
const bcryptCost = 12

// HashPassword derives a bcrypt hash for storage in students.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
