package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
)

// Repository manages persistence for point transactions and the denormalized
// balance on users.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.PointTransaction) error
	ApplyBalanceDelta(ctx context.Context, userID uuid.UUID, delta int) (int64, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error)
	List(ctx context.Context, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listTransactionsParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, txn *models.PointTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// ApplyBalanceDelta moves a user's balance by delta. The WHERE clause rejects
// any move that would take the balance negative; callers treat zero affected
// rows as insufficient points (or a missing user).
func (r *repositoryImpl) ApplyBalanceDelta(ctx context.Context, userID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET total_points = total_points + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND total_points + ? >= 0
	`, delta, userID, delta)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repositoryImpl) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var total *int
	if err := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Where("user_id = ?", userID)
	return r.page(query, params)
}

func (r *repositoryImpl) List(ctx context.Context, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.PointTransaction{})
	return r.page(query, params)
}

func (r *repositoryImpl) page(query *gorm.DB, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var transactions []models.PointTransaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&transactions).Error; err != nil {
		return nil, nil, err
	}

	if len(transactions) > normalized {
		// Cursor points at the last row handed out; the strict < resume
		// predicate starts the next page just past it.
		next := transactions[normalized-1]
		transactions = transactions[:normalized]
		return transactions, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return transactions, nil, nil
}
