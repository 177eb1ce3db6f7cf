// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 驱动实现负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidSlotTimes 时段时间不变量被违反（start_time >= end_time）
	// 新增和合并后的更新都在提交点校验
	ErrInvalidSlotTimes = errors.New("invalid slot times: start_time must be before end_time")
)
