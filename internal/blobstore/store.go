package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// Store 负责内容文件的读写。磁盘布局：
//
//	<root>/contents/<scope>/<name>/<version>.zip    # 原始字节
type Store interface {
	// Get 返回可流式读取的内容。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 以临时文件 + rename 的方式整体覆盖目标文件。
	Put(ctx context.Context, locator Locator, body io.Reader) (*Entry, error)

	// Path 返回 locator 对应的绝对路径，不访问文件系统。
	Path(locator Locator) (string, error)
}

// Locator 唯一定位一个内容文件。
type Locator struct {
	Scope   string
	Name    string
	Version string
}

// Entry 描述一次写入或读取命中的文件信息。
type Entry struct {
	Locator   Locator   `json:"locator"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示内容文件不存在。
var ErrNotFound = errors.New("content blob not found")

// Extension 是内容文件的后缀，仅用于命名。
const Extension = ".zip"
