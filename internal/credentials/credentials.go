// Package credentials はメールアドレスとパスワードによる認可処理（Credentials プロバイダー）を提供します。
//
// Authorize は認証失敗（入力不正・ユーザー不在・パスワード不一致）をすべて nil, nil で返し、
// ストア障害のみを ErrLookupFailed として返します。呼び出し側は両者を混同してはいけません。
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/dashboard-auth/internal/logging"
	"github.com/yourusername/dashboard-auth/internal/users"
)

// ProviderName はこのプロバイダーの識別子です。
const ProviderName = "credentials"

// ErrLookupFailed はユーザー取得時のストア障害を表します。
var ErrLookupFailed = errors.New("failed to fetch user")

// Credentials はログイン試行ごとに送られる入力です。永続化はしません。
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Authorizer は資格情報を検証してユーザーを返します。
type Authorizer struct {
	repo     users.Repository
	validate *validator.Validate
	logger   logging.Logger
}

// NewAuthorizer は Authorizer を作成します。logger が nil の場合は出力しません。
func NewAuthorizer(repo users.Repository, logger logging.Logger) *Authorizer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Authorizer{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("provider", ProviderName),
	}
}

// Name はプロバイダー名を返します。
func (a *Authorizer) Name() string {
	return ProviderName
}

// Authorize は入力検証 → ユーザー取得 → ハッシュ照合の順に処理します。
// 成功時はハッシュを含む保存済みのユーザーをそのまま返します。
func (a *Authorizer) Authorize(ctx context.Context, payload map[string]any) (*users.User, error) {
	creds, ok := a.Parse(payload)
	if !ok {
		return nil, nil
	}

	user, err := a.getUser(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		a.logger.Info(ctx, "user not found", "email", maskEmail(creds.Email))
		return nil, nil
	}

	if !passwordMatches(user.Password, creds.Password) {
		a.logger.Info(ctx, "invalid credentials", "email", maskEmail(creds.Email))
		return nil, nil
	}

	return user, nil
}

// Parse は型の無いペイロードを Credentials に分解して検証します。
// email と password 以外のキーは無視します。
func (a *Authorizer) Parse(payload map[string]any) (Credentials, bool) {
	email, ok := payload["email"].(string)
	if !ok {
		return Credentials{}, false
	}
	password, ok := payload["password"].(string)
	if !ok {
		return Credentials{}, false
	}

	creds := Credentials{Email: email, Password: password}
	if err := a.validate.Struct(creds); err != nil {
		return Credentials{}, false
	}
	return creds, true
}

func (a *Authorizer) getUser(ctx context.Context, email string) (*users.User, error) {
	user, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, nil
		}
		a.logger.Error(ctx, "failed to fetch user", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return user, nil
}

// passwordMatches は bcrypt で照合します。保存値が壊れている場合も不一致扱いです。
func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// maskEmail はログ用にローカル部の先頭1文字以外を伏せます。
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	_, size := utf8.DecodeRuneInString(email)
	return email[:size] + "***" + email[at:]
}
