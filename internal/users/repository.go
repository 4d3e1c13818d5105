package users

import (
	"context"
	"errors"
)

// ErrNotFound は該当するユーザーが存在しないことを表します。
// ストア障害とは区別され、呼び出し側は errors.Is で判定します。
var ErrNotFound = errors.New("user not found")

// Repository はユーザーの読み取り専用ストアです。
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
