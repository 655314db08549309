package service

import (
	"errors"
	"fmt"
)

// ErrEditionNotFound is returned when no edition has the requested id.
var ErrEditionNotFound = errors.New("edition not found")

// ValidationError 表示用户输入不合法，Message 会原样展示给管理员。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// StorageError 表示数据库或对象存储失败，只记录日志，不向用户暴露细节。
type StorageError struct {
	Op      string
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) (*StorageError, bool) {
	var target *StorageError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
