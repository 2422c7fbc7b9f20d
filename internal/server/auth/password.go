package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way bcrypt record from the password. The salt is
// drawn per call and baked into the encoded output, so equal passwords hash
// to different records.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored record. The
// comparison is constant-time with respect to the hash.
func CheckPassword(password, hashedRecord string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedRecord), []byte(password)) == nil
}
