// Package session は発行済みセッションの台帳を Redis に保存します。
// 署名付きクッキーだけでは取り消せないため、ログアウト時にここから削除します。
package session

import "time"

// Record は発行済みセッション1件を表します。
type Record struct {
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
