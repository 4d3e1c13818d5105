// Package users はユーザーレコードとその取得処理を提供します。
package users

import "github.com/google/uuid"

// User は users テーブルの1行を表します。
// Password には bcrypt のハッシュが入り、平文は保持しません。
type User struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Password string
}
