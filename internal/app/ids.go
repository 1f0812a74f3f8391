package app

import (
	"github.com/google/uuid"

	"github.com/cimillas/seatplan/internal/domain"
)

func newUUID() string {
	return uuid.NewString()
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
