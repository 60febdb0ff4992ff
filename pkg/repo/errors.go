package repo

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// translate maps driver/gorm errors onto ErrNotFound and ErrDuplicate. The
// gorm session must be opened with TranslateError so that every driver
// reports unique violations as gorm.ErrDuplicatedKey; the message check covers
// drivers that do not.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicateMessage(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isDuplicateMessage(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "Duplicate entry") || // mysql 1062
		strings.Contains(msg, "duplicate key value") // postgres 23505
}
