package repository

import (
	"context" // Context for query cancellation
	"errors"  // Error matching

	"marketplace/internal/domain" // Domain error taxonomy

	"gorm.io/gorm" // GORM ORM library
)

// Repository is a generic entity store over GORM. It covers the plain
// attribute-mapped persistence every entity needs: get, create, partial
// update, delete and paginated list. Partial updates take an explicit
// per-entity update struct; there is no copy-arbitrary-fields path.
type Repository[T any] struct {
	db *gorm.DB // Persistence handle, injected per instance
}

// New creates a Repository bound to db
func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// WithTx rebinds the repository to a running transaction so its operations
// join that unit of work
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

// Get fetches the entity with the given id, or domain.ErrNotFound
func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound // Entity absent
		}
		return nil, err // Storage error
	}
	return &entity, nil
}

// Create persists a new entity and fills in its generated fields
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// Updates applies the non-zero fields of partial to the entity with the
// given id and returns the updated row
func (r *Repository[T]) Updates(ctx context.Context, id uint, partial any) (*T, error) {
	var entity T
	// Fetch first so a missing id maps to NotFound instead of a silent no-op
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&entity).Updates(partial).Error; err != nil {
		return nil, err // Update failed
	}
	// Reload so the caller sees exactly what was stored
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// Delete removes the entity with the given id; domain.ErrNotFound if absent
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	var entity T
	res := r.db.WithContext(ctx).Delete(&entity, id)
	if res.Error != nil {
		return res.Error // Storage error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound // Nothing deleted
	}
	return nil
}

// List returns one page of entities plus the total row count
func (r *Repository[T]) List(ctx context.Context, page, pageSize int) ([]T, int64, error) {
	var entity T
	var total int64
	// Count total rows for pagination
	if err := r.db.WithContext(ctx).Model(&entity).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize // Calculate offset
	var entities []T
	// Fetch the requested page
	if err := r.db.WithContext(ctx).Offset(offset).Limit(pageSize).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}
