package services

import "fmt"

// QueryError REST 查询失败：传输错误、非 2xx 状态码或响应体不是 JSON
type QueryError struct {
	Endpoint string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("查询 %s 失败: %v", e.Endpoint, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// MalformedResponseError 响应缺少预期字段
type MalformedResponseError struct {
	Endpoint string
	Key      string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s 响应缺少预期字段: %s", e.Endpoint, e.Key)
}

// PersistenceError 持久化写入失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s失败: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
