package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

var (
	// ErrInvalidInput signals a malformed identifier or request body.
	ErrInvalidInput = errors.New("invalid document input")
	// ErrCollectionNotFound signals a collection name outside the configured allowlist.
	ErrCollectionNotFound = errors.New("collection not found")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrNotAnObject) ||
		errors.Is(err, domain.ErrEmptyFieldName) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
