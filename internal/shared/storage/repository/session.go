package repository

import "context"

// SessionMarker 返回持久化的会话标记（用户 id）
//
// 会话标记使进程重启后可以恢复登录态；无会话时返回空串。
func (s *Store) SessionMarker(ctx context.Context) (string, error) {
	data, ok, err := s.readBlob(ctx, keySession)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return string(data), nil
}

// SetSessionMarker 持久化会话标记；传空串清除
func (s *Store) SetSessionMarker(ctx context.Context, userID string) error {
	if userID == "" {
		return s.deleteBlob(ctx, keySession)
	}
	return s.writeBlob(ctx, keySession, []byte(userID))
}
