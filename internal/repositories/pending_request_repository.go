package repositories

import (
	"context"
	"errors"

	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername is returned when an insert loses the race
	// against another request for the same username.
	ErrDuplicateUsername = errors.New("a request with this username is already pending")
	// ErrRequestNotFound is returned when no stored request exists for
	// the given username.
	ErrRequestNotFound = errors.New("pending request not found")
)

const mysqlDupEntry = 1062

type PendingRequestRepository interface {
	Create(ctx context.Context, row *model.PendingRequest) error
	Find(ctx context.Context) ([]*model.PendingRequest, error)
	TakeByUsername(ctx context.Context, username string) (*model.PendingRequest, error)
	UsernamePending(ctx context.Context, username string) (bool, error)
	UserHasRequestPending(ctx context.Context, req account.NewAccountRequest) (bool, error)
}

type pendingRequestRepository struct {
	db *gorm.DB
}

func NewPendingRequestRepository(db *gorm.DB) PendingRequestRepository {
	return &pendingRequestRepository{db: db}
}

// Create inserts a stored request. The unique index on user_name is the
// last line of defense against concurrent submissions that both passed
// the dedup read-check; the losing insert gets ErrDuplicateUsername.
func (r *pendingRequestRepository) Create(ctx context.Context, row *model.PendingRequest) error {
	err := r.db.WithContext(ctx).Create(row).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDupEntry {
		return ErrDuplicateUsername
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUsername
	}
	return err
}

func (r *pendingRequestRepository) Find(ctx context.Context) ([]*model.PendingRequest, error) {
	var rows []*model.PendingRequest
	err := r.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

// TakeByUsername fetches the stored request and deletes it in one
// transaction. Deleting keyed on username and checking RowsAffected makes
// the claim atomic: of two racing decisions, exactly one sees the row.
func (r *pendingRequestRepository) TakeByUsername(ctx context.Context, username string) (*model.PendingRequest, error) {
	var row model.PendingRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_name = ?", username).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		ret := tx.Where("user_name = ?", username).Delete(&model.PendingRequest{})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected == 0 {
			return ErrRequestNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *pendingRequestRepository) UsernamePending(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PendingRequest{}).
		Where("user_name = ?", username).
		Count(&count).Error
	return count > 0, err
}

// UserHasRequestPending reports whether the requester already has a
// request stored, matched on CalLink OID for groups and CalNet UID for
// individuals. OID 0 means no organization affiliation and never matches.
func (r *pendingRequestRepository) UserHasRequestPending(ctx context.Context, req account.NewAccountRequest) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.PendingRequest{})
	switch {
	case req.IsGroup && req.CalLinkOID != 0:
		query = query.Where("callink_oid = ?", req.CalLinkOID)
	case !req.IsGroup:
		query = query.Where("calnet_uid = ?", req.CalNetUID)
	default:
		return false, nil
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
