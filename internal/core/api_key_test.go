package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	var insertedArgs []any
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			insertedArgs = args.Get(2).([]any)
		}).
		Return(pgconn.CommandTag{}, nil)

	createdRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(createdRow)

	tenantID := "ten-1"
	key, rawKey, err := svc.Create(ctx, &tenantID, "blog api key", []string{"posts:write"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "fbp_"))
	assert.Len(t, rawKey, 68)
	assert.Equal(t, rawKey[:12], key.KeyPrefix)
	assert.Equal(t, []string{"posts:write"}, key.Scopes)
	require.NotNil(t, key.TenantID)
	assert.Equal(t, "ten-1", *key.TenantID)

	// Stored hash matches the raw key.
	hash := sha256.Sum256([]byte(rawKey))
	assert.Equal(t, hex.EncodeToString(hash[:]), insertedArgs[3])
}

func TestAPIKeyService_Create_DefaultScopes(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*time.Time)) = time.Now()
			return nil
		}})

	key, _, err := svc.Create(ctx, nil, "platform key", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"*:*"}, key.Scopes)
	assert.Nil(t, key.TenantID)
}

func TestAPIKeyService_CreateWithRawKey(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*time.Time)) = time.Now()
			return nil
		}})

	key, err := svc.CreateWithRawKey(ctx, nil, "dev key", "fbp_devdevdevdev", nil)
	require.NoError(t, err)
	assert.Equal(t, "fbp_devdevde", key.KeyPrefix)
}

func TestAPIKeyService_Create_InsertError(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	_, _, err := svc.Create(ctx, nil, "key", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert api key")
}

func TestAPIKeyService_Revoke_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"key-1"}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	require.NoError(t, svc.Revoke(ctx, "key-1"))
}

func TestAPIKeyService_Revoke_AlreadyRevoked(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"key-1"}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(ctx, "key-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or already revoked")
}

func TestAPIKeyService_List_Pagination(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	keyScan := func(id string) func(dest ...any) error {
		return func(dest ...any) error {
			*(dest[0].(*string)) = id
			*(dest[2].(*string)) = "key " + id
			*(dest[3].(*string)) = "fbp_abcd1234"
			*(dest[4].(*[]string)) = []string{"*:*"}
			*(dest[5].(*time.Time)) = time.Now()
			return nil
		}
	}
	rows := newMockRows(keyScan("key-1"), keyScan("key-2"), keyScan("key-3"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	keys, hasMore, err := svc.List(ctx, 2, "")
	require.NoError(t, err)
	assert.True(t, hasMore)
	assert.Len(t, keys, 2)
}
