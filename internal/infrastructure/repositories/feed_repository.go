package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

const feedColumns = `id, owner_id, title, description, category, sub_category, price, year, mileage,
	images, status, expires_at, created_at, updated_at`

// FeedRepositoryImpl serves the public feed with hand written SQL over sqlx
type FeedRepositoryImpl struct {
	db *sqlx.DB
}

// NewFeedRepository creates the read side listing repository
func NewFeedRepository(db *sqlx.DB) domain.FeedRepository {
	return &FeedRepositoryImpl{db: db}
}

type feedRow struct {
	ID          string     `db:"id"`
	OwnerID     uint       `db:"owner_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Category    string     `db:"category"`
	SubCategory string     `db:"sub_category"`
	Price       *float64   `db:"price"`
	Year        *int       `db:"year"`
	Mileage     *int       `db:"mileage"`
	Images      string     `db:"images"`
	Status      string     `db:"status"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// ListVisible returns approved, unexpired listings matching filter, newest first
func (r *FeedRepositoryImpl) ListVisible(ctx context.Context, filter domain.FeedFilter, now time.Time) ([]*domain.Listing, error) {
	query := "SELECT " + feedColumns + " FROM listings WHERE status = ? AND (expires_at IS NULL OR expires_at > ?)"
	args := []interface{}{string(domain.StatusApproved), now}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.SubCategory != "" {
		query += " AND sub_category = ?"
		args = append(args, filter.SubCategory)
	}
	if filter.MinPrice != nil {
		query += " AND price >= ?"
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query += " AND price <= ?"
		args = append(args, *filter.MaxPrice)
	}
	if filter.MinYear != nil {
		query += " AND year >= ?"
		args = append(args, *filter.MinYear)
	}
	if filter.MaxYear != nil {
		query += " AND year <= ?"
		args = append(args, *filter.MaxYear)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += " AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"
		args = append(args, like, like)
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	var rows []feedRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("FeedRepository.ListVisible: %w", err)
	}

	out := make([]*domain.Listing, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// FindVisible returns the listing only while it is publicly visible
func (r *FeedRepositoryImpl) FindVisible(ctx context.Context, id string, now time.Time) (*domain.Listing, error) {
	query := r.db.Rebind("SELECT " + feedColumns +
		" FROM listings WHERE id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)")

	var row feedRow
	err := r.db.GetContext(ctx, &row, query, id, string(domain.StatusApproved), now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FeedRepository.FindVisible: %w", err)
	}
	return row.toDomain()
}

func (f *feedRow) toDomain() (*domain.Listing, error) {
	images := []string{}
	if f.Images != "" {
		if err := json.Unmarshal([]byte(f.Images), &images); err != nil {
			return nil, fmt.Errorf("decode images of listing %s: %w", f.ID, err)
		}
	}
	return &domain.Listing{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Title:       f.Title,
		Description: f.Description,
		Category:    domain.Category(f.Category),
		SubCategory: f.SubCategory,
		Price:       f.Price,
		Year:        f.Year,
		Mileage:     f.Mileage,
		Images:      images,
		Status:      domain.ListingStatus(f.Status),
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}, nil
}
