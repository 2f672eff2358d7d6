package store

import (
	"context"
	"database/sql"

	"storefront/internal/models"
)

// UpsertRating writes a user's rating for a product, replacing any prior
// rating from the same user, and recomputes the product's average from the
// full rating list within the same transaction. The derivation lives in
// models.AverageRating rather than a database trigger so it is testable in
// isolation.
func (s *Store) UpsertRating(ctx context.Context, rating *models.ProductRating) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", rating.ProductID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, &models.NotFoundError{Entity: "product", ID: rating.ProductID}
	}

	query := `
		INSERT INTO product_ratings (product_id, user_id, rating, review)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, review = EXCLUDED.review, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	if err := tx.GetContext(ctx, rating, query,
		rating.ProductID, rating.UserID, rating.Rating, rating.Review); err != nil {
		return nil, err
	}

	var ratings []models.ProductRating
	if err := tx.SelectContext(ctx, &ratings,
		"SELECT * FROM product_ratings WHERE product_id = $1", rating.ProductID); err != nil {
		return nil, err
	}

	average := models.AverageRating(ratings)

	var product models.Product
	err = tx.GetContext(ctx, &product, `
		UPDATE products SET average_rating = $1, rating_count = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING *`,
		average, len(ratings), rating.ProductID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetRatingsByProductID retrieves all ratings for a product
func (s *Store) GetRatingsByProductID(ctx context.Context, productID int64) ([]models.ProductRating, error) {
	var ratings []models.ProductRating
	err := s.db.SelectContext(ctx, &ratings,
		"SELECT * FROM product_ratings WHERE product_id = $1 ORDER BY updated_at DESC", productID)
	return ratings, err
}

// GetRating retrieves one user's rating of a product, nil when absent.
func (s *Store) GetRating(ctx context.Context, productID, userID int64) (*models.ProductRating, error) {
	var rating models.ProductRating
	err := s.db.GetContext(ctx, &rating,
		"SELECT * FROM product_ratings WHERE product_id = $1 AND user_id = $2", productID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
