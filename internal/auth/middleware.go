package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireLogin はセッションを検証するミドルウェアを返します。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		userID, ok := sess.Get(sessionKeyUserID).(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です",
			})
			return
		}

		now := m.now()
		issuedAt := readUnix(sess.Get(sessionKeyIssuedAt))
		lastActive := readUnix(sess.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > m.maxLifetime {
			m.expire(c, sess, "SESSION_EXPIRED", "セッションの有効期限が切れました")
			return
		}

		if lastActive.IsZero() || now.Sub(lastActive) > m.idleTimeout {
			m.expire(c, sess, "SESSION_IDLE_TIMEOUT", "しばらく操作がなかったため再ログインしてください")
			return
		}

		if m.registry != nil {
			ctx := c.Request.Context()
			sessionID, _ := sess.Get(sessionKeyID).(string)
			if sessionID == "" {
				m.expire(c, sess, "SESSION_REVOKED", "セッションは無効になりました")
				return
			}
			record, err := m.registry.Get(ctx, sessionID)
			if err != nil {
				m.logger.Error(ctx, "failed to read session registry", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    "SESSION_LOOKUP_FAILED",
					"message": "セッションの確認に失敗しました",
				})
				return
			}
			if record == nil || record.UserID != userID {
				m.expire(c, sess, "SESSION_REVOKED", "セッションは無効になりました")
				return
			}
			if err := m.registry.Touch(ctx, sessionID); err != nil {
				m.logger.Warn(ctx, "failed to touch session", "error", err)
			}
		}

		sess.Set(sessionKeyLastActive, now.Unix())
		_ = sess.Save()

		email, _ := sess.Get(sessionKeyEmail).(string)
		name, _ := sess.Get(sessionKeyName).(string)
		c.Set(ContextUserKey, SessionUser{ID: userID, Email: email, Name: name})
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		sess := sessions.Default(c)
		expected, ok := sess.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません",
			})
			return
		}

		c.Next()
	}
}

func (m *Manager) expire(c *gin.Context, sess sessions.Session, code, message string) {
	sess.Clear()
	_ = sess.Save()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    code,
		"message": message,
	})
}
