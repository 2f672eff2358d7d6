package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// RatingService handles product rating submissions.
type RatingService struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(store Store, publisher Publisher) *RatingService {
	return &RatingService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// RateProductRequest represents a rating submission
type RateProductRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review,omitempty"`
}

// RateProduct upserts the calling user's rating of a product. A user keeps
// at most one rating per product; resubmitting replaces the prior value and
// the stored average is recomputed from the full list.
func (rs *RatingService) RateProduct(ctx context.Context, productID, userID int64, req *RateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "RatingService.RateProduct")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, &models.ValidationError{Violations: []models.FieldViolation{
			{Field: "rating", Message: "must be between 1 and 5"},
		}}
	}

	rating := &models.ProductRating{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Review:    req.Review,
	}

	product, err := rs.store.UpsertRating(ctx, rating)
	if err != nil {
		return nil, err
	}

	util.RatingsSubmittedTotal.Inc()
	rs.logger.Info("Rating submitted",
		zap.Int64("product_id", productID),
		zap.Int64("user_id", userID),
		zap.Int("rating", req.Rating),
		zap.Float64("average", product.AverageRating))

	event := &models.ProductRatedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeProductRated),
		ProductID:     productID,
		UserID:        userID,
		Rating:        req.Rating,
		AverageRating: product.AverageRating,
	}
	if err := rs.publisher.PublishProductRated(ctx, event); err != nil {
		rs.logger.Error("Failed to publish ProductRated event", zap.Error(err))
	}

	return product, nil
}

// ListRatings retrieves all ratings for a product
func (rs *RatingService) ListRatings(ctx context.Context, productID int64) ([]models.ProductRating, error) {
	if _, err := rs.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return rs.store.GetRatingsByProductID(ctx, productID)
}
