package auth

import (
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCodeHasher implements domain.CodeHasher. One-time codes live for minutes, so a low cost is enough.
type BcryptCodeHasher struct {
	cost int
}

// NewCodeHasher creates a bcrypt backed code hasher
func NewCodeHasher() domain.CodeHasher {
	return &BcryptCodeHasher{cost: bcrypt.MinCost}
}

// Hash implements domain.CodeHasher
func (h *BcryptCodeHasher) Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify implements domain.CodeHasher
func (h *BcryptCodeHasher) Verify(hashed, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(code)) == nil
}
