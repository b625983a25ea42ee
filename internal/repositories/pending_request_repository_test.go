package repositories

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/model"
)

func newTestRepo(t *testing.T) PendingRequestRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is a distinct database; pin the pool
	// to one connection so all queries see the same data.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.Models...))
	return NewPendingRequestRepository(db)
}

func storedRequest(username string, calnetUID int) *model.PendingRequest {
	return model.PendingRequestFromRequest(account.NewAccountRequest{
		Username:          username,
		RealName:          "Carol Chen",
		CalNetUID:         calnetUID,
		Email:             username + "@berkeley.edu",
		EncryptedPassword: bytes.Repeat([]byte{0x42}, 512),
		HandleWarnings:    account.WarningsSubmit,
	})
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedRequest("carol", 100)))
	require.NoError(t, repo.Create(ctx, storedRequest("dave", 200)))

	rows, err := repo.Find(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedRequest("carol", 100)))
	err := repo.Create(ctx, storedRequest("carol", 999))
	require.ErrorIs(t, err, ErrDuplicateUsername)

	rows, err := repo.Find(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100, rows[0].CalNetUID)
}

func TestTakeByUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedRequest("carol", 100)))

	row, err := repo.TakeByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", row.Username)
	assert.Equal(t, "Carol Chen", row.RealName)

	// The row is gone; a second take fails.
	_, err = repo.TakeByUsername(ctx, "carol")
	require.ErrorIs(t, err, ErrRequestNotFound)

	rows, err := repo.Find(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTakeByUsernameMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.TakeByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestUsernamePending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pending, err := repo.UsernamePending(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, repo.Create(ctx, storedRequest("carol", 100)))

	pending, err = repo.UsernamePending(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestUserHasRequestPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedRequest("carol", 100)))

	groupRow := model.PendingRequestFromRequest(account.NewAccountRequest{
		Username:          "chessclub",
		RealName:          "Chess Club",
		IsGroup:           true,
		CalLinkOID:        46130,
		Email:             "chess@berkeley.edu",
		EncryptedPassword: bytes.Repeat([]byte{0x42}, 512),
	})
	require.NoError(t, repo.Create(ctx, groupRow))

	tests := []struct {
		name string
		req  account.NewAccountRequest
		want bool
	}{
		{
			name: "individual with a pending request",
			req:  account.NewAccountRequest{CalNetUID: 100},
			want: true,
		},
		{
			name: "individual without a pending request",
			req:  account.NewAccountRequest{CalNetUID: 999},
			want: false,
		},
		{
			name: "group with a pending request",
			req:  account.NewAccountRequest{IsGroup: true, CalLinkOID: 46130},
			want: true,
		},
		{
			name: "group without a pending request",
			req:  account.NewAccountRequest{IsGroup: true, CalLinkOID: 7},
			want: false,
		},
		{
			name: "group with no organization never matches",
			req:  account.NewAccountRequest{IsGroup: true, CalLinkOID: 0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.UserHasRequestPending(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTripPreservesFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	password := bytes.Repeat([]byte{0x13, 0x37}, 256)
	require.NoError(t, repo.Create(ctx, model.PendingRequestFromRequest(account.NewAccountRequest{
		Username:          "carol",
		RealName:          "Carol Chen",
		CalNetUID:         1034192,
		Email:             "carol@berkeley.edu",
		EncryptedPassword: password,
		HandleWarnings:    account.WarningsSubmit,
	})))

	row, err := repo.TakeByUsername(ctx, "carol")
	require.NoError(t, err)

	req := row.ToRequest(account.WarningsCreate)
	assert.Equal(t, "carol", req.Username)
	assert.Equal(t, "Carol Chen", req.RealName)
	assert.False(t, req.IsGroup)
	assert.Equal(t, 1034192, req.CalNetUID)
	assert.Equal(t, "carol@berkeley.edu", req.Email)
	assert.Equal(t, password, req.EncryptedPassword)
	assert.Equal(t, account.WarningsCreate, req.HandleWarnings)
}
