package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"tss-admin/internal/session"
	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
)

// UserReader 中间件所需的最小存储接口（接口隔离）
type UserReader interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store storage.RecordStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store storage.RecordStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/v1/auth/register", h.RegisterStudent)
	mux.HandleFunc("POST /api/v1/auth/register-staff", h.RegisterStaff)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  model.User `json:"user"`
	View  model.View `json:"view"`
	Token string     `json:"token"`
}

type registerStudentRequest struct {
	FullName            string       `json:"full_name"`
	Email               string       `json:"email"`
	Password            string       `json:"password"`
	Gender              model.Gender `json:"gender"`
	Whatsapp            string       `json:"whatsapp"`
	PreferredTimeSlotID string       `json:"preferred_time_slot_id"`
	StartDate           string       `json:"start_date"`
	EndDate             string       `json:"end_date"`
}

type registerStaffRequest struct {
	FullName           string       `json:"full_name"`
	Email              string       `json:"email"`
	Password           string       `json:"password"`
	Gender             model.Gender `json:"gender"`
	Whatsapp           string       `json:"whatsapp"`
	Agreement          bool         `json:"agreement"`
	Religion           string       `json:"religion"`
	Division           string       `json:"division"`
	Education          string       `json:"education"`
	PhoneNumber        string       `json:"phone_number"`
	RelationshipStatus string       `json:"relationship_status"`
	DeviceSelection    string       `json:"device_selection"`
	BirthOrder         string       `json:"birth_order"`
	IsRegularStudent   bool         `json:"is_regular_student"`
	UsesImo            string       `json:"uses_imo"`
	PhoneBrand         string       `json:"phone_brand"`
	PhoneSpecs         string       `json:"phone_specs"`
	PreviousSites      string       `json:"previous_sites"`
	AvailableHours     string       `json:"available_hours"`
	FbLink             string       `json:"fb_link"`
}

// ============================================================================
// Handlers
// ============================================================================

// Login 登录
//
// 凭据匹配但账号被停用 → 403 + 固定停用文案；其余一切失败
// （邮箱不存在 / 密码错误）统一 401 + 通用文案，不泄露邮箱是否存在。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[auth.login] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	for i := range users {
		u := &users[i]
		if u.Email != req.Email || !CheckPassword(req.Password, u.Password) {
			continue
		}
		if u.IsBlocked {
			writeError(w, http.StatusForbidden, session.MsgAccountSuspended)
			return
		}

		token, err := GenerateSessionToken(h.cfg, u)
		if err != nil {
			log.Printf("[auth.login] GenerateSessionToken error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		log.Printf("[auth] user logged in: %s (%s)", u.Email, u.ID)
		writeJSON(w, http.StatusOK, loginResponse{
			User:  u.Redacted(),
			View:  model.AdmittedView(u),
			Token: token,
		})
		return
	}
	writeError(w, http.StatusUnauthorized, session.MsgInvalidCredentials)
}

// Logout 登出
//
// 令牌由客户端持有并丢弃；若持久化会话标记指向当前用户则一并清除。
// 吊销依赖中间件的每请求停用检测，而非服务端状态。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := SessionUser(r.Context()); user != nil {
		marker, err := h.store.SessionMarker(r.Context())
		if err != nil {
			log.Printf("[auth.logout] SessionMarker error: %v", err)
		} else if marker == user.ID {
			if err := h.store.SetSessionMarker(r.Context(), ""); err != nil {
				log.Printf("[auth.logout] SetSessionMarker error: %v", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// RegisterStudent 学员自助注册
//
// 新学员默认 isBlocked=true（待管理员放行），意向时段仅作参考。
func (h *Handler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" ||
		req.Whatsapp == "" || req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest,
			"full_name, email, password, whatsapp, start_date, end_date are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}

	user := model.User{
		ID:                  "sub-" + generateID(),
		FullName:            req.FullName,
		Email:               req.Email,
		Password:            req.Password,
		Gender:              req.Gender,
		Whatsapp:            req.Whatsapp,
		Role:                model.UserRoleSubscriber,
		IsBlocked:           true, // 待审批放行
		PreferredTimeSlotID: req.PreferredTimeSlotID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
	}

	ok, err := h.store.AddUser(r.Context(), user)
	if err != nil {
		log.Printf("[auth.register] AddUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "This email is already registered.")
		return
	}

	log.Printf("[auth] student registered: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Registration submitted! Please wait for admin approval before logging in.",
		"id":      user.ID,
	})
}

// RegisterStaff 员工申请
//
// 申请记录 status=PENDING、isBlocked=false：员工的访问闸门是
// 审批状态而非停用位。报名资料字段除必填检查外原样保存。
func (h *Handler) RegisterStaff(w http.ResponseWriter, r *http.Request) {
	var req registerStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Whatsapp == "" {
		writeError(w, http.StatusBadRequest, "full_name, email, password, whatsapp are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if !req.Agreement {
		writeError(w, http.StatusBadRequest, "You must agree to the conditions first.")
		return
	}

	user := model.User{
		ID:                 "staff-" + generateID(),
		FullName:           req.FullName,
		Email:              req.Email,
		Password:           req.Password,
		Gender:             req.Gender,
		Whatsapp:           req.Whatsapp,
		Role:               model.UserRoleStaff,
		Status:             model.StaffStatusPending,
		IsBlocked:          false,
		Agreement:          req.Agreement,
		Religion:           req.Religion,
		Division:           req.Division,
		Education:          req.Education,
		PhoneNumber:        req.PhoneNumber,
		RelationshipStatus: req.RelationshipStatus,
		DeviceSelection:    req.DeviceSelection,
		BirthOrder:         req.BirthOrder,
		IsRegularStudent:   req.IsRegularStudent,
		UsesImo:            req.UsesImo,
		PhoneBrand:         req.PhoneBrand,
		PhoneSpecs:         req.PhoneSpecs,
		PreviousSites:      req.PreviousSites,
		AvailableHours:     req.AvailableHours,
		FbLink:             req.FbLink,
	}

	ok, err := h.store.AddUser(r.Context(), user)
	if err != nil {
		log.Printf("[auth.register-staff] AddUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "This email is already registered.")
		return
	}

	log.Printf("[auth] staff application submitted: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Application submitted! Please wait for admin approval.",
		"id":      user.ID,
	})
}

// Me 当前会话信息
//
// 返回中间件重读到的新鲜记录及其准入视图。
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := SessionUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user.Redacted(),
		"view": model.AdmittedView(user),
	})
}

// ============================================================================
// 工具函数
// ============================================================================

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func generateID() string {
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
