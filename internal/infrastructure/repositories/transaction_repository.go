package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
)

// TransactionRepositoryImpl implements domain.TransactionRepository using GORM
type TransactionRepositoryImpl struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// Create implements domain.TransactionRepository
func (r *TransactionRepositoryImpl) Create(ctx context.Context, tx *domain.Transaction) error {
	row := transactionToDB(tx)
	if err := conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	tx.ID = row.ID
	tx.CreatedAt = row.CreatedAt
	tx.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByReference implements domain.TransactionRepository
func (r *TransactionRepositoryImpl) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	return r.findOne(ctx, "reference = ?", reference)
}

// FindByGatewayRef implements domain.TransactionRepository
func (r *TransactionRepositoryImpl) FindByGatewayRef(ctx context.Context, gatewayRef string) (*domain.Transaction, error) {
	if gatewayRef == "" {
		return nil, domain.ErrTransactionNotFound
	}
	return r.findOne(ctx, "gateway_ref = ?", gatewayRef)
}

func (r *TransactionRepositoryImpl) findOne(ctx context.Context, query string, arg interface{}) (*domain.Transaction, error) {
	var row DBTransaction
	if err := conn(ctx, r.db).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transactionToDomain(&row), nil
}

// SetGatewayRef implements domain.TransactionRepository
func (r *TransactionRepositoryImpl) SetGatewayRef(ctx context.Context, reference, gatewayRef string) error {
	res := conn(ctx, r.db).Model(&DBTransaction{}).Where("reference = ?", reference).Update("gateway_ref", gatewayRef)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// Complete implements domain.TransactionRepository
func (r *TransactionRepositoryImpl) Complete(ctx context.Context, reference string) (bool, error) {
	return r.finish(ctx, reference, map[string]interface{}{
		"status": string(domain.TransactionCompleted),
	})
}

// Fail implements domain.TransactionRepository
func (r *TransactionRepositoryImpl) Fail(ctx context.Context, reference, reason string) (bool, error) {
	return r.finish(ctx, reference, map[string]interface{}{
		"status":         string(domain.TransactionFailed),
		"failure_reason": reason,
	})
}

// finish applies a terminal status if the transaction is still pending
func (r *TransactionRepositoryImpl) finish(ctx context.Context, reference string, values map[string]interface{}) (bool, error) {
	db := conn(ctx, r.db)
	res := db.Model(&DBTransaction{}).
		Where("reference = ? AND status = ?", reference, string(domain.TransactionPending)).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := db.Model(&DBTransaction{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domain.ErrTransactionNotFound
	}
	return false, nil
}

// ListByUser returns the user's transactions, newest first
func (r *TransactionRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*domain.Transaction, error) {
	var rows []DBTransaction
	err := conn(ctx, r.db).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Scopes(paginate(limit, offset)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

// ListPendingBefore returns pending purchases created before cutoff, oldest first
func (r *TransactionRepositoryImpl) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	var rows []DBTransaction
	err := conn(ctx, r.db).
		Where("status = ? AND source = ? AND created_at < ?", string(domain.TransactionPending), string(domain.SourcePurchase), cutoff).
		Order("created_at ASC").Scopes(paginate(limit, 0)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

func transactionToDB(t *domain.Transaction) *DBTransaction {
	return &DBTransaction{
		ID:            t.ID,
		Reference:     t.Reference,
		UserID:        t.UserID,
		PackageID:     t.PackageID,
		Category:      string(t.Category),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Credits:       t.Credits,
		Status:        string(t.Status),
		Source:        string(t.Source),
		GatewayRef:    t.GatewayRef,
		FailureReason: t.FailureReason,
		GrantedBy:     t.GrantedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func transactionToDomain(row *DBTransaction) *domain.Transaction {
	return &domain.Transaction{
		ID:            row.ID,
		Reference:     row.Reference,
		UserID:        row.UserID,
		PackageID:     row.PackageID,
		Category:      domain.Category(row.Category),
		Amount:        row.Amount,
		Currency:      row.Currency,
		Credits:       row.Credits,
		Status:        domain.TransactionStatus(row.Status),
		Source:        domain.TransactionSource(row.Source),
		GatewayRef:    row.GatewayRef,
		FailureReason: row.FailureReason,
		GrantedBy:     row.GrantedBy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func transactionsToDomain(rows []DBTransaction) []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, transactionToDomain(&rows[i]))
	}
	return out
}
