// Package indexlog implements the append-only record log that backs a package
// index. Each record is one line; writers only ever append and readers get the
// records back in the order they were written. Callers depend on the Log
// interface so a locking or remote implementation can replace FileLog later.
package indexlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	// ErrLogNotFound 表示日志文件尚不存在（包从未发布过）。
	ErrLogNotFound = errors.New("log not found")
	// ErrMultilineRecord 表示记录中含有换行符，追加会破坏行边界。
	ErrMultilineRecord = errors.New("record contains a newline")
)

// Log 是追加式日志的最小接口。
type Log interface {
	// Append 在日志尾部追加一条记录，绝不读取或改写已有内容。
	Append(record []byte) error
	// ReadAll 按写入顺序返回所有记录（不含换行符）。
	ReadAll() ([][]byte, error)
}

// FileLog 以单个文件保存日志，每次 Append 都独立地 open → write → close。
type FileLog struct {
	path string
	perm fs.FileMode
}

// NewFileLog 返回指向 path 的日志，文件在首次 Append 时创建。
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path, perm: 0o644}
}

func (l *FileLog) Path() string { return l.path }

func (l *FileLog) Append(record []byte) error {
	if bytes.ContainsRune(record, '\n') {
		return ErrMultilineRecord
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, l.perm)
	if err != nil {
		return err
	}

	// 记录与换行符合并为一次 write，O_APPEND 下其它写者只能在行边界之间交错。
	buf := make([]byte, 0, len(record)+1)
	buf = append(buf, record...)
	buf = append(buf, '\n')

	_, err = f.Write(buf)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	return err
}

func (l *FileLog) ReadAll() ([][]byte, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	defer f.Close()

	return readRecords(f)
}

// readRecords 逐行读取，跳过空行；最后一行缺少换行符时依然返回。
func readRecords(r io.Reader) ([][]byte, error) {
	reader := bufio.NewReader(r)
	var records [][]byte
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimRight(line, "\r\n"); len(bytes.TrimSpace(trimmed)) > 0 {
			records = append(records, trimmed)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("read log: %w", err)
		}
	}
}
