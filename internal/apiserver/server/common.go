// Package server 路由配置与核心基础设施
//
// 本包实现培训管理系统的 RESTful API 入口，包括：
//   - 认证接口（auth 包）
//   - 管理员接口（admin 包）
//   - 员工接口（staff 包）
//   - 学员接口（subscriber 包）
//
// 文件组织：
//   - common.go: 通用工具函数和 Handler 定义
//   - handler.go: 路由配置
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"tss-admin/internal/apiserver/auth"
	"tss-admin/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域独立包
//   - 管理存储层连接
//   - 导出 Prometheus 指标
type Handler struct {
	store      storage.RecordStore
	authConfig auth.Config
	metrics    *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.RecordStore, authConfig auth.Config) *Handler {
	return &Handler{
		store:      store,
		authConfig: authConfig,
		metrics:    NewMetrics("tss", store),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
