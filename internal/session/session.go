// Package session 会话与授权上下文
//
// 会话本质上是登录时用户记录的一份缓存副本：没有令牌过期、没有刷新、
// 没有服务端会话表。副本可能在两次导航之间过时，唯一的吊销机制是
// CheckSuspension —— 它必须在每次进入受保护视图时被调用，
// 否则被停用的用户在下一次导航前仍可继续操作。
//
// 持久化的会话标记（用户 id）使进程重启后可通过 New 恢复登录态。
//
// 状态机：ANONYMOUS -> (login 成功) -> AUTHENTICATED
//   -> (logout | CheckSuspension 发现被停用/已删除) -> ANONYMOUS，
// 无中间状态。
package session

import (
	"context"

	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
	"tss-admin/internal/shared/storage/repository"
)

// 认证失败的固定提示文案。
// 无效凭据的提示刻意不区分"邮箱不存在"与"密码错误"；
// 账号停用的提示允许泄露账号存在性，因为它描述的就是账号状态。
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgAccountSuspended   = "Account Suspended. Please contact the administrator."
)

// LoginResult 登录结果
type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Context 会话上下文
//
// 显式注入到需要它的调用方，不提供任何包级全局状态。
type Context struct {
	store storage.RecordStore
	user  *model.User
}

// New 创建会话上下文，并尝试从持久化标记恢复上一次的登录态
//
// 标记指向的用户已被删除或停用时静默回到匿名态（等价于启动即触发
// 一次 CheckSuspension）。
func New(ctx context.Context, store storage.RecordStore) (*Context, error) {
	c := &Context{store: store}

	marker, err := store.SessionMarker(ctx)
	if err != nil {
		return nil, err
	}
	if marker == "" {
		return c, nil
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if u := repository.FindUser(users, marker); u != nil && !u.IsBlocked {
		cached := *u
		c.user = &cached
	} else {
		// 悬空/失效标记：清除，回到匿名态
		if err := store.SetSessionMarker(ctx, ""); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CurrentUser 返回当前会话缓存的用户记录；匿名态为 nil
func (c *Context) CurrentUser() *model.User {
	return c.user
}

// Authenticated 是否处于已认证状态
func (c *Context) Authenticated() bool {
	return c.user != nil
}

// Login 校验凭据并建立会话
//
// 邮箱精确匹配（大小写敏感）。凭据匹配但账号被停用时返回固定的
// 停用文案且不建立会话；其余一切失败情形返回统一的无效凭据文案。
func (c *Context) Login(ctx context.Context, email, password string) (LoginResult, error) {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return LoginResult{}, err
	}

	for i := range users {
		u := &users[i]
		if u.Email != email || u.Password != password {
			continue
		}
		if u.IsBlocked {
			return LoginResult{Success: false, Error: MsgAccountSuspended}, nil
		}
		cached := *u
		c.user = &cached
		if err := c.store.SetSessionMarker(ctx, u.ID); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Success: true}, nil
	}
	return LoginResult{Success: false, Error: MsgInvalidCredentials}, nil
}

// Logout 清除会话及其持久化标记，对存储的记录无任何副作用
func (c *Context) Logout(ctx context.Context) error {
	c.user = nil
	return c.store.SetSessionMarker(ctx, "")
}

// CheckSuspension 事后停用检测
//
// 按 id 重读当前会话的用户：记录已不存在（被删除）或已被停用时
// 强制登出并返回 revoked=true；否则为 no-op（注意：不刷新缓存副本，
// 角色等其它字段的漂移不在此机制的职责内）。
//
// 系统没有推送通知，该轮询是会话中途吊销权限的唯一机制，
// 必须在每次受保护视图切换时调用。
func (c *Context) CheckSuspension(ctx context.Context) (bool, error) {
	if c.user == nil {
		return false, nil
	}

	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	u := repository.FindUser(users, c.user.ID)
	if u == nil || u.IsBlocked {
		if err := c.Logout(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
