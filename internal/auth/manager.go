// Package auth はログイン・ログアウトとセッション検証を提供します。
//
// 資格情報の検証そのものは Provider に委譲し、このパッケージはセッションクッキーの発行、
// CSRF トークン、ログイン必須ミドルウェアといった周辺の配線を担います。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/yourusername/dashboard-auth/internal/logging"
	"github.com/yourusername/dashboard-auth/internal/session"
	"github.com/yourusername/dashboard-auth/internal/users"
)

const (
	sessionKeyID         = "sid"
	sessionKeyUserID     = "user_id"
	sessionKeyEmail      = "email"
	sessionKeyName       = "name"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"

	csrfHeader = "X-CSRF-Token"
)

const (
	defaultMaxSessionLifetime = 12 * time.Hour
	defaultIdleTimeout        = 30 * time.Minute
)

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// Provider は資格情報からユーザーを特定する認証方式です。
// 認証失敗は nil, nil、ストア障害などはエラーで返します。
type Provider interface {
	Name() string
	Authorize(ctx context.Context, credentials map[string]any) (*users.User, error)
}

// Registry は発行済みセッションの台帳です。*session.Store が実装します。
type Registry interface {
	Create(ctx context.Context, record *session.Record) error
	Get(ctx context.Context, sessionID string) (*session.Record, error)
	Touch(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID string) error
}

// SessionUser はセッションに保存するユーザー情報です。パスワードハッシュは含みません。
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Options は Manager の構成です。起動時に一度だけ組み立てます。
type Options struct {
	Providers          []Provider
	Registry           Registry // nil の場合は台帳を使わない
	Logger             logging.Logger
	MaxSessionLifetime time.Duration
	IdleTimeout        time.Duration
}

// Manager は認証処理をまとめた構造体です。作成後は不変です。
type Manager struct {
	providers   []Provider
	registry    Registry
	logger      logging.Logger
	maxLifetime time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewManager は認証マネージャーを作成します。
func NewManager(opts Options) (*Manager, error) {
	if len(opts.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	for _, p := range opts.Providers {
		if p == nil {
			return nil, errors.New("provider is nil")
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	maxLifetime := opts.MaxSessionLifetime
	if maxLifetime <= 0 {
		maxLifetime = defaultMaxSessionLifetime
	}
	idleTimeout := opts.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	return &Manager{
		providers:   opts.Providers,
		registry:    opts.Registry,
		logger:      logger.With("component", "auth"),
		maxLifetime: maxLifetime,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}, nil
}

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (m *Manager) SessionMaxAgeSeconds() int {
	return int(m.maxLifetime.Seconds())
}

// authorize は登録順にプロバイダーを試し、最初に見つかったユーザーを返します。
func (m *Manager) authorize(ctx context.Context, payload map[string]any) (*users.User, string, error) {
	for _, p := range m.providers {
		user, err := p.Authorize(ctx, payload)
		if err != nil {
			return nil, p.Name(), err
		}
		if user != nil {
			return user, p.Name(), nil
		}
	}
	return nil, "", nil
}

func toSessionUser(u *users.User) SessionUser {
	return SessionUser{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
