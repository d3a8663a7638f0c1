package market

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable 是所有数据源失败的统一哨兵，协调器据此切换备用源。
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrorKind 区分数据源失败原因。
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindUpstreamFormat
	KindEmptyResult
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUpstreamFormat:
		return "upstream_format"
	case KindEmptyResult:
		return "empty_result"
	default:
		return "unknown"
	}
}

// SourceError 携带数据源名与失败类型；errors.Is(err, ErrSourceUnavailable) 恒为 true。
type SourceError struct {
	Source string
	Kind   ErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

func NetworkError(source string, err error) error {
	return &SourceError{Source: source, Kind: KindNetwork, Err: err}
}

func FormatError(source string, format string, args ...any) error {
	return &SourceError{Source: source, Kind: KindUpstreamFormat, Err: fmt.Errorf(format, args...)}
}

func EmptyResultError(source, symbol string) error {
	return &SourceError{Source: source, Kind: KindEmptyResult, Err: fmt.Errorf("no candles for %s", symbol)}
}

// KindOf 返回错误类型；非 SourceError 返回 0。
func KindOf(err error) ErrorKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
