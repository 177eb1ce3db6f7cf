package model

// PrivateNote 员工/管理员可见的学员备注
//
// 备注列表只追加，不支持单条删除；时间戳为 Unix 毫秒。
type PrivateNote struct {
	ID         string `json:"id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}
