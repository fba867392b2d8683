package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

// UserService manages blog user accounts.
type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

// CreateAdmin creates the owner's admin account with a generated temporary
// password. The clear-text password is returned once, for the welcome mail.
func (s *UserService) CreateAdmin(ctx context.Context, tenantID, email, name string) (*model.User, string, error) {
	password, err := tempPassword()
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           platform.NewID(),
		TenantID:     tenantID,
		Email:        email,
		Name:         name,
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, tenant_id, email, name, role, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.TenantID, user.Email, user.Name, user.Role, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", fmt.Errorf("user %s already exists for tenant %s", email, tenantID)
		}
		return nil, "", fmt.Errorf("insert user: %w", err)
	}

	return user, password, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, email, name, role, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// ListByTenant returns all users of a tenant, admins first.
func (s *UserService) ListByTenant(ctx context.Context, tenantID string) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, email, name, role, created_at, updated_at FROM users WHERE tenant_id = $1 ORDER BY role, email`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func tempPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
