package generator

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredential は API キー未設定です。通信前に検出します。
	ErrMissingCredential = errors.New("missing API credential")
	// ErrEmptyResponse は応答に解析可能なテキストが無かったことを表します。
	ErrEmptyResponse = errors.New("no response from AI")
	// ErrMalformedResponse は応答がスキーマを満たさなかったことを表します。
	ErrMalformedResponse = errors.New("malformed response from AI")
	// ErrBusy は別の生成が実行中であることを表します。
	ErrBusy = errors.New("generation already in progress")
)

// BackendError はバックエンドが返したステータス付きのエラーです。
type BackendError struct {
	StatusCode int
	Status     string // 例: PERMISSION_DENIED
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("backend error %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// PermissionDenied は権限エラー（403 / PERMISSION_DENIED）かどうかを返します。
func (e *BackendError) PermissionDenied() bool {
	return e.StatusCode == http.StatusForbidden || e.Status == "PERMISSION_DENIED"
}

// IsPermissionDenied は err が権限エラーを表すかどうかを返します。
func IsPermissionDenied(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.PermissionDenied()
}
