package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

// FingerprintOrder hashes the order payload so a reused key with a different body is detected.
// encoding/json sorts map keys, which keeps the hash independent of field order.
func FingerprintOrder(body docdomain.Document) (string, error) {
	payload, err := json.Marshal(body.WithoutID())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
