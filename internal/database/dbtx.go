// Package database は PostgreSQL 接続とスキーマのマイグレーションを提供します。
package database

import (
	"context"
	"database/sql"
)

// DBTX はリポジトリが使う database/sql の部分集合です。
// *sql.DB と *sql.Tx の両方が満たします。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
