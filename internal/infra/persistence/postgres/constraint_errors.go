package postgres

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// The gorm postgres driver is opened with TranslateError, so constraint
// failures surface as gorm sentinels rather than raw pq errors.
func isUniqueConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// isNotNullConstraintViolation sniffs the message because gorm has no
// sentinel for SQLSTATE 23502.
func isNotNullConstraintViolation(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "null value") ||
		strings.Contains(msg, "not null") ||
		strings.Contains(msg, "23502")
}
