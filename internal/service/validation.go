package service

import (
	"fmt"

	"passage-server/internal/models"
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, fmt.Sprintf(format, args...))
}
