package repository

import (
	"errors"
	"fmt"
	"strings"

	"JNChoral/core/apperr"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrDuplicateUser is returned when the email is already registered.
var ErrDuplicateUser = fmt.Errorf("user already exists: %w", apperr.ErrConflict)

// notFound maps gorm's missing-row error onto apperr.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern builds a case-insensitive substring pattern escaped for `ESCAPE '!'`.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
