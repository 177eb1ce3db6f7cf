// Package auth 用户认证：会话令牌管理、凭据校验、HTTP 中间件
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tss-admin/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeySessionUser contextKey = "session_user"

// Config 认证配置
type Config struct {
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL 为 0 表示令牌不过期：会话在显式登出或停用检测
	// 命中之前一直有效。吊销依赖每请求的存储重读，不依赖令牌寿命。
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		JWTSecret: "",
		TokenTTL:  0,
	}
}

// ============================================================================
// 凭据校验
// ============================================================================

// CheckPassword 校验口令
//
// 口令按约定明文存储、逐字节比较（行为兼容要求，见 DESIGN.md）；
// 使用常数时间比较避免时序侧信道。
func CheckPassword(password, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

// ============================================================================
// 会话令牌（JWT）
// ============================================================================

// Claims 会话令牌声明
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// GenerateSessionToken 签发会话令牌
//
// TokenTTL 为 0 时不写入 exp 声明。角色声明仅供客户端展示，
// 服务端的授权判定始终基于每请求重读的用户记录。
func GenerateSessionToken(cfg Config, user *model.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Email: user.Email,
		Role:  string(user.Role),
	}
	if cfg.TokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseSessionToken 解析并验证会话令牌
func ParseSessionToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithSessionUser 将当前请求重读到的用户记录注入 context
func WithSessionUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeySessionUser, user)
}

// SessionUser 从 context 获取当前用户记录
//
// 中间件在每个受保护请求上从存储重读该记录，因此它总是新鲜的
// （不是登录时的缓存副本）。
func SessionUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeySessionUser).(*model.User)
	return user
}
