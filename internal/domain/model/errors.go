package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCatalogは、カタログJSONのいずれかが解析できない場合のエラーです。
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrCatalogLockedは、別の実行がカタログのロックを保持している場合のエラーです。
	ErrCatalogLocked = errors.New("catalog is locked by another run")
)

type ExtractErrorKind string

const (
	ExtractErrorNavigation ExtractErrorKind = "navigation"
	ExtractErrorTimeout    ExtractErrorKind = "timeout"
	ExtractErrorSession    ExtractErrorKind = "session"
)

// ExtractErrorは、車種単位で回復可能な抽出失敗です。バッチは中断せず、その車種をfailedとして記録します。
type ExtractError struct {
	Kind  ExtractErrorKind
	CarID string
	Err   error
}

func NewExtractError(kind ExtractErrorKind, carID string, err error) *ExtractError {
	return &ExtractError{Kind: kind, CarID: carID, Err: err}
}

func (e *ExtractError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] car %s", e.Kind, e.CarID)
	}
	return fmt.Sprintf("[%s] car %s: %v", e.Kind, e.CarID, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
