package services

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	apperrors "hisaab/internal/errors"
)

// isCheckViolation reports whether err is a store CHECK constraint failure.
// The postgres dialector translates these to gorm.ErrCheckConstraintViolated;
// the sqlite one passes the driver error through untranslated.
func isCheckViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
}

// writeError maps a failed insert or update to an AppError.
func writeError(err error) *apperrors.AppError {
	if isCheckViolation(err) {
		return apperrors.Wrap(apperrors.ErrConstraint, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
