package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/yourusername/dashboard-auth/internal/session"
)

// SignIn は /auth/login のハンドラーです。
// JSON またはフォームで受け取った資格情報をプロバイダーに渡し、成功したらセッションを発行します。
func (m *Manager) SignIn(c *gin.Context) {
	payload, err := readCredentials(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を JSON またはフォームで送ってください",
		})
		return
	}

	ctx := c.Request.Context()
	user, provider, err := m.authorize(ctx, payload)
	if err != nil {
		m.logger.Error(ctx, "authorization failed", "provider", provider, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "AUTH_BACKEND_UNAVAILABLE",
			"message": "認証サービスが一時的に利用できません",
		})
		return
	}
	if user == nil {
		// 原因（入力不正・ユーザー不在・パスワード不一致）は区別しない
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "INVALID_CREDENTIALS",
			"message": "メールアドレスまたはパスワードが正しくありません",
		})
		return
	}

	token, err := generateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "TOKEN_GENERATION_FAILED",
			"message": "CSRF トークンの生成に失敗しました",
		})
		return
	}

	sessionUser := toSessionUser(user)
	sessionID := uuid.NewString()
	now := m.now()

	if m.registry != nil {
		record := &session.Record{
			SessionID: sessionID,
			UserID:    sessionUser.ID,
			Email:     sessionUser.Email,
			CreatedAt: now.UTC(),
			ExpiresAt: now.Add(m.maxLifetime).UTC(),
		}
		if err := m.registry.Create(ctx, record); err != nil {
			m.logger.Error(ctx, "failed to register session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "SESSION_SAVE_FAILED",
				"message": "セッションの保存に失敗しました",
			})
			return
		}
	}

	// 既存のセッション内容は引き継がない
	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(sessionKeyID, sessionID)
	sess.Set(sessionKeyUserID, sessionUser.ID)
	sess.Set(sessionKeyEmail, sessionUser.Email)
	sess.Set(sessionKeyName, sessionUser.Name)
	sess.Set(sessionKeyIssuedAt, now.Unix())
	sess.Set(sessionKeyLastActive, now.Unix())
	sess.Set(sessionKeyCSRF, token)

	if err := sess.Save(); err != nil {
		if m.registry != nil {
			_ = m.registry.Revoke(ctx, sessionID)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	m.logger.Info(ctx, "signed in", "provider", provider, "user_id", sessionUser.ID)
	c.Header(csrfHeader, token)
	c.JSON(http.StatusOK, gin.H{"user": sessionUser})
}

// SignOut は /auth/logout のハンドラーです。
func (m *Manager) SignOut(c *gin.Context) {
	ctx := c.Request.Context()
	sess := sessions.Default(c)

	if sessionID, ok := sess.Get(sessionKeyID).(string); ok && m.registry != nil {
		if err := m.registry.Revoke(ctx, sessionID); err != nil {
			// 台帳に残ったままクッキーだけ消すと取り消せなくなるので、ここで止める
			m.logger.Error(ctx, "failed to revoke session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "SESSION_REVOKE_FAILED",
				"message": "セッションの削除に失敗しました",
			})
			return
		}
	}

	sess.Clear()
	if err := sess.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// Session は /auth/session のハンドラーです。RequireLogin の後ろで使います。
func (m *Manager) Session(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "ログインが必要です",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CurrentUser は RequireLogin が格納したユーザーを取り出します。
func CurrentUser(c *gin.Context) (SessionUser, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return SessionUser{}, false
	}
	user, ok := v.(SessionUser)
	return user, ok
}

// readCredentials はリクエストボディを型の無いマップとして読み取ります。
func readCredentials(c *gin.Context) (map[string]any, error) {
	payload := map[string]any{}
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&payload); err != nil {
			return nil, err
		}
		return payload, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}
	return payload, nil
}
