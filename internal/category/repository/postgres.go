package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stocktrail/inventory-service/internal/category/dto"
	"github.com/stocktrail/inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (owner_id, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	return r.DB.QueryRowxContext(ctx, query, c.OwnerID, c.Name, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
}

func (r *PGRepository) FindByID(ctx context.Context, ownerID, id int64) (*model.Category, error) {
	var category model.Category
	query := `SELECT * FROM categories WHERE id = $1 AND owner_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &category, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	var categories []model.Category
	var count int

	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM categories WHERE owner_id = $1`, f.OwnerID)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM categories WHERE owner_id = $1 ORDER BY name ASC`
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	err = r.DB.SelectContext(ctx, &categories, query, f.OwnerID)
	if err != nil {
		return nil, 0, err
	}

	return categories, count, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	query := `
        UPDATE categories
        SET name = :name,
            updated_at = :updated_at
        WHERE id = :id AND owner_id = :owner_id
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	// Items referencing the category fall back to NULL via the FK constraint.
	res, err := r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *PGRepository) ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE owner_id = $1 AND name = $2 AND id <> $3)`
	err := r.DB.GetContext(ctx, &exists, query, ownerID, name, excludeID)
	return exists, err
}
