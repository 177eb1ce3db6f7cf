// Package regression 回归测试用例集
//
// 本包包含项目的核心功能回归测试，用于：
//   - 架构重构前后的功能验证
//   - 持续集成中的功能回归检查
//   - 新功能开发后的全量验证
//
// 测试文件组织：
//   - setup_test.go      - 测试基础设施和初始化
//   - auth_test.go       - 登录/注册/会话测试
//   - admin_test.go      - 管理员账号管理测试
//   - slot_test.go       - 时间段管理测试
//   - staff_test.go      - 员工名册与备注测试
//   - subscriber_test.go - 学员课表测试
//   - lifecycle_test.go  - 端到端生命周期测试
//
// 运行方式：
//   go test -v ./tests/regression/...
//
// 环境要求：
//   - 无外部依赖（SQLite 内存数据库）
package regression

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"tss-admin/internal/apiserver/auth"
	"tss-admin/internal/apiserver/server"
	"tss-admin/internal/shared/model"
	sqlitedriver "tss-admin/internal/shared/storage/driver/sqlite"
	"tss-admin/internal/shared/storage/repository"
)

// ============================================================================
// 全局测试基础设施
// ============================================================================

var (
	testStore  *repository.Store
	testRouter http.Handler
)

const testJWTSecret = "regression-test-secret"

// TestMain 测试入口，初始化测试环境
func TestMain(m *testing.M) {
	db, err := sqlitedriver.Open(":memory:")
	if err != nil {
		os.Exit(1)
	}
	dialect := sqlitedriver.NewDialect()
	if err := dialect.AutoMigrate(db); err != nil {
		os.Exit(1)
	}

	testStore = repository.NewStore(db, dialect)

	h := server.NewHandler(testStore, auth.Config{JWTSecret: testJWTSecret})
	testRouter = h.Router()

	code := m.Run()
	testStore.Close()
	os.Exit(code)
}

// ============================================================================
// 测试辅助函数
// ============================================================================

// resetState 将存储恢复到只有初始管理员的干净状态
//
// 存储是整集合读-改-写模型，整体覆盖即可彻底隔离用例。
func resetState(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := testStore.ReplaceUsers(ctx, []model.User{model.BootstrapAdmin()}); err != nil {
		t.Fatalf("reset users: %v", err)
	}
	if err := testStore.ReplaceSlots(ctx, nil); err != nil {
		t.Fatalf("reset slots: %v", err)
	}
}

// makeRequest 创建并执行 HTTP 请求
func makeRequest(method, path string, body interface{}) *httptest.ResponseRecorder {
	return makeAuthedRequest(method, path, body, "")
}

// makeAuthedRequest 携带 Bearer 令牌创建并执行 HTTP 请求
func makeAuthedRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// makeRequestWithString 使用字符串 body 创建请求
func makeRequestWithString(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// parseJSONResponse 解析 JSON 响应
func parseJSONResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

// login 执行登录并返回令牌；失败时终止测试
func login(t *testing.T, email, password string) string {
	t.Helper()
	w := makeRequest("POST", "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s failed: %d - %s", email, w.Code, w.Body.String())
	}
	resp := parseJSONResponse(w)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("login %s returned no token", email)
	}
	return token
}

// adminToken 以初始管理员身份登录
func adminToken(t *testing.T) string {
	t.Helper()
	return login(t, "admin@tss.com", "admin")
}
