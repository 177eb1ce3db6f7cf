package auth

import (
	"log"
	"net/http"
	"strings"

	"tss-admin/internal/session"
	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage/repository"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/health",
	"/metrics",
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 创建会话认证中间件
//
// 除验证令牌外，每个受保护请求都按令牌主体从存储重读用户记录：
// 记录已删除返回 401、已被停用返回 403 —— 这是"每次受保护导航都做
// 停用轮询"契约在请求/响应模型下的等价实现，省略它会让被停用的
// 用户带着旧令牌继续工作。通过校验后将新鲜的用户记录注入 context。
func Middleware(cfg Config, store UserReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			// 解析令牌
			claims, err := ParseSessionToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			// 停用检测：按 id 重读用户记录
			users, err := store.ListUsers(r.Context())
			if err != nil {
				log.Printf("[auth] list users error: %v", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			user := repository.FindUser(users, claims.Subject)
			if user == nil {
				// 账号已被删除，会话随之终止
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}
			if user.IsBlocked {
				http.Error(w, `{"error":"`+session.MsgAccountSuspended+`"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSessionUser(r.Context(), user)))
		})
	}
}

// RequireAdmin 管理员专属路由守卫
//
// 基于中间件注入的新鲜记录判定角色，而非令牌声明。
func RequireAdmin(w http.ResponseWriter, r *http.Request) *model.User {
	user := SessionUser(r.Context())
	if user == nil || user.Role != model.UserRoleAdmin {
		http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
		return nil
	}
	return user
}
