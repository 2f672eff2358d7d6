package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateProduct inserts a new product. SKU uniqueness is enforced by the
// schema; a duplicate surfaces as a ConflictError.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (sku, name, description, category, image_url, price, stock, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, average_rating, rating_count, created_at, updated_at`

	err := s.db.GetContext(ctx, product, query,
		product.SKU, product.Name, product.Description, product.Category,
		product.ImageURL, product.Price, product.Stock, product.Active)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return &models.ConflictError{Entity: "product sku", ID: product.ID}
	}
	return err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// ListProductsOptions filters and pages the catalog listing. SortBy must be
// one of the whitelisted columns; anything else falls back to id.
type ListProductsOptions struct {
	Category   string
	ActiveOnly bool
	SortBy     string
	Descending bool
	Limit      int
	Offset     int
}

var productSortColumns = map[string]bool{
	"id":             true,
	"name":           true,
	"price":          true,
	"average_rating": true,
	"created_at":     true,
}

// ListProducts retrieves products with filtering, sorting and pagination.
func (s *Store) ListProducts(ctx context.Context, opts ListProductsOptions) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE 1=1"
	args := []interface{}{}

	if opts.Category != "" {
		args = append(args, opts.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if opts.ActiveOnly {
		query += " AND active"
	}

	sortBy := opts.SortBy
	if !productSortColumns[sortBy] {
		sortBy = "id"
	}
	query += " ORDER BY " + sortBy
	if opts.Descending {
		query += " DESC"
	}

	args = append(args, opts.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var products []models.Product
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// SetStock sets a product's stock to an absolute value, conditioned on the
// stock still matching what the caller last read. A failed predicate means
// a concurrent mutation won; the caller gets a ConflictError and must
// re-read.
func (s *Store) SetStock(ctx context.Context, productID int64, expected, stock int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2 AND stock = $3",
		stock, productID, expected)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetProductByID(ctx, productID); err != nil {
			return err
		}
		return &models.ConflictError{Entity: "product", ID: productID}
	}
	return nil
}

// AddStock adds quantity back to a product's stock (restock on cancel).
// Returns false without error when the product no longer exists, so the
// caller can surface a reconciliation warning and continue.
func (s *Store) AddStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2",
		quantity, productID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
