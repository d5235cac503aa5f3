// Package directory is the project directory the relay verifies admissions
// against: canonical id format plus a lookup from project id to record.
package directory

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidID reports whether id satisfies the directory's canonical id format:
// 24 hexadecimal characters, ObjectId style.
func ValidID(id string) bool {
	return validate.Var(id, "required,len=24,hexadecimal") == nil
}

// NewID generates a fresh canonical project id.
func NewID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
