package registry

import (
	"errors"
	"fmt"

	"github.com/any-hub/pkgstore/internal/pkgmodel"
)

var (
	// ErrPackageNotFound 表示包的索引文件不存在。
	ErrPackageNotFound = errors.New("package not found")
	// ErrContentNotFound 表示指定版本的内容文件不存在。
	ErrContentNotFound = errors.New("package content not found")
	// ErrConfigNotFound 表示 index/config.json 不存在。
	ErrConfigNotFound = errors.New("index config not found")
)

// IsNotFound 判断错误是否属于"不存在"类，调用方可据此尝试下一个 fallback。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrContentNotFound) ||
		errors.Is(err, ErrConfigNotFound)
}

// OpError 携带失败的操作与路径，用于 I/O 类错误。
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(op, path string, err error) error {
	return &OpError{Op: op, Path: path, Err: err}
}

// ParseError 表示索引中的某条记录无法解析，整个查询因此失败。
type ParseError struct {
	Package pkgmodel.PackageName
	Record  int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse package index entry for %s (record %d): %v", e.Package, e.Record, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FallbackError 表示 config.json 中的某个 fallback 路径无法规范化。
type FallbackError struct {
	Entry string
	Path  string
	Err   error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("resolve fallback registry %q (%s): %v", e.Entry, e.Path, e.Err)
}

func (e *FallbackError) Unwrap() error { return e.Err }
