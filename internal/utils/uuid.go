package utils

import (
	"github.com/google/uuid"
)

// GenerateSecureUUID generates a random (v4) UUID string, backed by
// google/uuid's crypto/rand source rather than a hand-rolled one.
func GenerateSecureUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
