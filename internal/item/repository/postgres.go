package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/stocktrail/inventory-service/internal/apperror"
	"github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const itemColumns = `i.id, i.owner_id, i.category_id, i.name, i.description, i.quantity, i.price, i.created_at, i.updated_at, c.name AS category_name`

func (r *PGRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
        INSERT INTO inventory_items (owner_id, category_id, name, description, quantity, price, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRowxContext(ctx, query,
		item.OwnerID, item.CategoryID, item.Name, item.Description,
		item.Quantity, item.Price, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
}

func (r *PGRepository) FindByID(ctx context.Context, ownerID, id int64) (*model.Item, error) {
	var item model.Item
	query := `
        SELECT ` + itemColumns + `
        FROM inventory_items i
        LEFT JOIN categories c ON c.id = i.category_id
        WHERE i.id = $1 AND i.owner_id = $2
    `
	err := r.DB.GetContext(ctx, &item, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	var items []model.Item
	var count int

	conditions := []string{"i.owner_id = :owner_id"}
	args := map[string]interface{}{"owner_id": f.OwnerID}

	if f.CategoryID != 0 {
		conditions = append(conditions, "i.category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "i.price >= :min_price")
		args["min_price"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "i.price <= :max_price")
		args["max_price"] = *f.MaxPrice
	}
	if f.LowStock {
		conditions = append(conditions, "i.quantity < :threshold")
		args["threshold"] = f.EffectiveThreshold()
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(i.name ILIKE :search OR c.name ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")
	fromClause := " FROM inventory_items i LEFT JOIN categories c ON c.id = i.category_id"

	countQuery := "SELECT count(*)" + fromClause + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT " + itemColumns + fromClause + whereClause + " ORDER BY i.created_at DESC, i.id DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) UpdateWithChange(ctx context.Context, item *model.Item, change *model.ChangeRecord) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock the row for the duration of the write so a concurrent update
	// cannot interleave between the quantity read and the record append.
	var currentQuantity int
	err = tx.QueryRowxContext(ctx,
		`SELECT quantity FROM inventory_items WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		item.ID, item.OwnerID,
	).Scan(&currentQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrNotFound
		}
		return err
	}

	if change != nil && currentQuantity != change.OldQuantity {
		return apperror.ErrConflict
	}

	updateQuery := `
        UPDATE inventory_items
        SET category_id = :category_id,
            name = :name,
            description = :description,
            quantity = :quantity,
            price = :price,
            updated_at = :updated_at
        WHERE id = :id AND owner_id = :owner_id
    `
	if _, err := tx.NamedExecContext(ctx, updateQuery, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	if change != nil {
		insertQuery := `
            INSERT INTO inventory_changes (item_id, user_id, username, old_quantity, new_quantity, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id
        `
		err = tx.QueryRowxContext(ctx, insertQuery,
			change.ItemID, change.UserID, change.Username,
			change.OldQuantity, change.NewQuantity, change.CreatedAt,
		).Scan(&change.ID)
		if err != nil {
			return fmt.Errorf("failed to append change record: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) DeleteWithChanges(ctx context.Context, ownerID, id int64) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var itemID int64
	err = tx.QueryRowxContext(ctx,
		`SELECT id FROM inventory_items WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		id, ownerID,
	).Scan(&itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	// Audit trail does not outlive its item.
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_changes WHERE item_id = $1`, itemID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, itemID); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *PGRepository) ListChangesByItem(ctx context.Context, itemID int64) ([]model.ChangeRecord, error) {
	var changes []model.ChangeRecord
	query := `
        SELECT ch.id, ch.item_id, ch.user_id, ch.username, ch.old_quantity, ch.new_quantity, ch.created_at,
               i.name AS item_name
        FROM inventory_changes ch
        JOIN inventory_items i ON i.id = ch.item_id
        WHERE ch.item_id = $1
        ORDER BY ch.created_at DESC, ch.id DESC
    `
	err := r.DB.SelectContext(ctx, &changes, query, itemID)
	return changes, err
}

func (r *PGRepository) ListChangesByOwner(ctx context.Context, ownerID int64) ([]model.ChangeRecord, int, error) {
	var changes []model.ChangeRecord
	var count int

	err := r.DB.GetContext(ctx, &count, `
        SELECT count(*)
        FROM inventory_changes ch
        JOIN inventory_items i ON i.id = ch.item_id
        WHERE i.owner_id = $1
    `, ownerID)
	if err != nil {
		return nil, 0, err
	}

	query := `
        SELECT ch.id, ch.item_id, ch.user_id, ch.username, ch.old_quantity, ch.new_quantity, ch.created_at,
               i.name AS item_name
        FROM inventory_changes ch
        JOIN inventory_items i ON i.id = ch.item_id
        WHERE i.owner_id = $1
        ORDER BY ch.created_at DESC, ch.id DESC
    `
	err = r.DB.SelectContext(ctx, &changes, query, ownerID)
	return changes, count, err
}
