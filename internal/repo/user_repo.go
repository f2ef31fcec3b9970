package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

// Create 写入用户；密码哈希由服务层生成
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, nickname, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.Nickname, user.PasswordHash, user.Role, now, now,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, nickname, password_hash, role, created_at, updated_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByID 不存在时返回 (nil, nil)
func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, "id = ?", id)
}

// GetByEmail 不存在时返回 (nil, nil)
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, "email = ?", email)
}
