package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaults_KnownNiche(t *testing.T) {
	db := new(mockDB)
	svc := NewTenantService(db)

	var categorySlugs, tagSlugs []string
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO categories")
	}), mock.Anything).Run(func(args mock.Arguments) {
		categorySlugs = append(categorySlugs, args.Get(2).([]any)[3].(string))
	}).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO tags")
	}), mock.Anything).Run(func(args mock.Arguments) {
		tagSlugs = append(tagSlugs, args.Get(2).([]any)[3].(string))
	}).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := svc.SeedDefaults(context.Background(), "ten-1", "tech")
	require.NoError(t, err)

	assert.Equal(t, []string{"tutorials", "reviews", "industry-news"}, categorySlugs)
	assert.Equal(t, []string{"howto", "tools", "opinion"}, tagSlugs)
}

func TestSeedDefaults_UnknownNicheFallsBack(t *testing.T) {
	db := new(mockDB)
	svc := NewTenantService(db)

	var names []string
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		names = append(names, args.Get(2).([]any)[2].(string))
	}).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := svc.SeedDefaults(context.Background(), "ten-1", "underwater-basket-weaving")
	require.NoError(t, err)

	assert.Equal(t, []string{"General", "Updates", "featured", "news"}, names)
}

func TestSeedDefaults_DBError(t *testing.T) {
	db := new(mockDB)
	svc := NewTenantService(db)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := svc.SeedDefaults(context.Background(), "ten-1", "tech")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed category")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "industry-news", slugify("Industry News"))
	assert.Equal(t, "general", slugify("  General "))
}
