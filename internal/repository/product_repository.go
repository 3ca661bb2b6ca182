package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Product mirrors the 'products' table of the product service. UserID is
// the owning account's id as asserted by the user service; there is no
// foreign key across the service boundary, the value is simply whatever
// subject id the creating token carried.
type Product struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	IsAvailable bool      `json:"is_available"`
	IsDeleted   bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter carries the optional query parameters of the list
// endpoint. Nil pointer fields are not applied.
type ProductFilter struct {
	Name        string
	MinPrice    *float64
	MaxPrice    *float64
	IsAvailable *bool
}

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = "id,user_id,name,description,price,is_available,is_deleted,created_at,updated_at"

// Create inserts a product owned by p.UserID and fills in the generated id
// and timestamps, so the create response carries what the database actually
// stored.
func (r *ProductRepo) Create(ctx context.Context, p *Product) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (user_id, name, description, price, is_available) VALUES (?,?,?,?,?)",
		p.UserID, p.Name, p.Description, p.Price, p.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM products WHERE id=?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByIDAndOwner fetches a single visible product scoped to its owner.
// The is_deleted filter means a soft-deleted product answers "not found"
// even to its own owner; the owner filter means someone else's product
// answers exactly the same way.
func (r *ProductRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (Product, error) {
	var p Product
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? AND user_id=? AND is_deleted=0 LIMIT 1",
		id, ownerID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price,
			&p.IsAvailable, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// Filter returns the caller's visible products narrowed by the optional
// name/price/availability filters.
func (r *ProductRepo) Filter(ctx context.Context, ownerID uint64, f ProductFilter) ([]Product, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " FROM products WHERE user_id=? AND is_deleted=0")
	args := []any{ownerID}

	if f.Name != "" {
		sb.WriteString(" AND name LIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.MinPrice != nil {
		sb.WriteString(" AND price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		sb.WriteString(" AND price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.IsAvailable != nil {
		sb.WriteString(" AND is_available = ?")
		args = append(args, *f.IsAvailable)
	}
	sb.WriteString(" ORDER BY id")

	rows, err := r.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price,
			&p.IsAvailable, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Update rewrites the mutable fields of a visible product scoped to its
// owner. Callers load the product first to distinguish "not found" from a
// no-change update, which MySQL also reports as zero affected rows.
func (r *ProductRepo) Update(ctx context.Context, id, ownerID uint64, name, description string, price float64, isAvailable bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, description=?, price=?, is_available=? WHERE id=? AND user_id=? AND is_deleted=0",
		name, description, price, isAvailable, id, ownerID)
	return err
}

// Delete physically removes a visible product scoped to its owner. A
// soft-deleted or foreign product deletes nothing and reports not found.
func (r *ProductRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM products WHERE id=? AND user_id=? AND is_deleted=0", id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ToggleByUser sets is_deleted on every product of a user, hidden rows
// included. is_active=false hides the whole set, is_active=true restores
// it. One UPDATE, so applying the same toggle twice converges instead of
// flipping back.
func (r *ProductRepo) ToggleByUser(ctx context.Context, userID uint64, isActive bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE products SET is_deleted=? WHERE user_id=?", !isActive, userID)
	return err
}

// DeleteByUser physically removes every product of a user, soft-deleted
// rows included. Called when the owning account is deleted for good.
func (r *ProductRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM products WHERE user_id=?", userID)
	return err
}
