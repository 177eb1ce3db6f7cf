package server

import (
	"net/http"

	"tss-admin/internal/apiserver/admin"
	"tss-admin/internal/apiserver/auth"
	"tss-admin/internal/apiserver/staff"
	"tss-admin/internal/apiserver/subscriber"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/login          - 登录
//   - POST /api/v1/auth/logout         - 登出
//   - POST /api/v1/auth/register       - 学员注册
//   - POST /api/v1/auth/register-staff - 员工申请
//   - GET  /api/v1/auth/me             - 当前会话信息
//
// 管理员 (Admin):
//   - GET    /api/v1/admin/users                    - 列出用户（支持过滤）
//   - GET    /api/v1/admin/users/{id}               - 获取用户
//   - PATCH  /api/v1/admin/users/{id}               - 部分更新用户
//   - DELETE /api/v1/admin/users/{id}               - 删除用户
//   - POST   /api/v1/admin/users/{id}/approve       - 审批通过员工
//   - POST   /api/v1/admin/users/{id}/reject        - 拒绝员工申请
//   - POST   /api/v1/admin/users/{id}/activate      - 放行/恢复账号
//   - POST   /api/v1/admin/users/{id}/deactivate    - 停用账号
//   - POST   /api/v1/admin/users/{id}/role          - 修改角色
//   - POST   /api/v1/admin/users/{id}/password      - 重置口令
//   - POST   /api/v1/admin/users/{id}/assign-slot   - 指派/清除时间段
//   - POST   /api/v1/admin/users/{id}/notes         - 追加私有备注
//   - GET    /api/v1/admin/slots                    - 列出时间段
//   - POST   /api/v1/admin/slots                    - 创建时间段
//   - PATCH  /api/v1/admin/slots/{id}               - 部分更新时间段
//   - DELETE /api/v1/admin/slots/{id}               - 删除时间段
//
// 员工 (Staff):
//   - GET  /api/v1/staff/roster                - 教师名册
//   - POST /api/v1/staff/students/{id}/notes   - 给学员追加备注
//
// 学员 (Subscriber):
//   - GET /api/v1/subscriber/schedule - 学员课表
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// 管理员接口
	adminHandler := admin.NewHandler(h.store)
	adminHandler.RegisterRoutes(mux)

	// 员工接口
	staffHandler := staff.NewHandler(h.store)
	staffHandler.RegisterRoutes(mux)

	// 学员接口
	subHandler := subscriber.NewHandler(h.store)
	subHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件（每请求重读用户记录做停用检测）
	authedHandler := auth.Middleware(h.authConfig, h.store)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
