package repository

import (
	"errors"

	repo "github.com/IgesAI/AMautomation/internal/repository"

	"gorm.io/gorm"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// gormのエラーをrepositoryのエラーに寄せる（TranslateError前提）
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrConflict
	default:
		return err
	}
}
