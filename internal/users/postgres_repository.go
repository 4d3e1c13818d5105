package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/dashboard-auth/internal/database"
)

// PostgresRepository は PostgreSQL の users テーブルを参照します。
type PostgresRepository struct {
	db database.DBTX
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetUserByEmail はメールアドレスの完全一致でユーザーを1件取得します。
// 行が無ければ ErrNotFound、それ以外の失敗はラップしたエラーを返します。
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query :=
		`SELECT id, name, email, password FROM users
		 WHERE email = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Name, &user.Email, &user.Password)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
