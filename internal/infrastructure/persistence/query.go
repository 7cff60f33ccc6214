package persistence

import (
	"errors"

	"gorm.io/gorm"
)

// row is a persistence model pointer convertible to its domain type D
type row[M, D any] interface {
	*M
	ToDomain() *D
}

// firstAs loads the first row q matches and converts it. A missing row
// becomes notFound.
func firstAs[M, D any, P row[M, D]](q *gorm.DB, notFound error) (*D, error) {
	var model M
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	return P(&model).ToDomain(), nil
}
