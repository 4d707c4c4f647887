package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActiveByLevel(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepo(db)
	expires := time.Now().Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "level_id", "code", "is_percent", "discount_value", "is_active", "expires_at"}).
		AddRow("cp-1", "l-1", "SAVE10", true, int64(10), true, expires).
		AddRow("cp-2", "l-1", "FLAT150", false, int64(150), true, nil)

	mock.ExpectQuery(`FROM coupons WHERE level_id = \$1 AND is_active = TRUE AND \(expires_at IS NULL OR expires_at > NOW\(\)\)`).
		WithArgs("l-1").
		WillReturnRows(rows)

	got, err := repo.ListActiveByLevel(context.Background(), "l-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SAVE10", got[0].Code)
	assert.True(t, got[0].IsPercent)
	require.NotNil(t, got[0].ExpiresAt)
	assert.Nil(t, got[1].ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveByLevelEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepo(db)

	mock.ExpectQuery(`FROM coupons WHERE level_id = \$1`).
		WithArgs("l-none").
		WillReturnRows(sqlmock.NewRows([]string{"id", "level_id", "code", "is_percent", "discount_value", "is_active", "expires_at"}))

	got, err := repo.ListActiveByLevel(context.Background(), "l-none")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetCouponByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepo(db)

	mock.ExpectQuery(`FROM coupons WHERE id = \$1`).
		WithArgs("cp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "level_id", "code", "is_percent", "discount_value", "is_active", "expires_at"}).
			AddRow("cp-1", "l-1", "SAVE10", true, int64(10), true, nil))

	got, err := repo.GetByID(context.Background(), "cp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.DiscountValue)
}

func TestGetCouponByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepo(db)

	mock.ExpectQuery(`FROM coupons WHERE id = \$1`).
		WithArgs("cp-missing").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "cp-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}
