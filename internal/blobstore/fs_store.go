package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	contentsDir = "contents"
	blobPerm    = 0o644
)

// NewStore 以 root 为注册表根目录构建内容存储，contents/ 目录按需创建。
func NewStore(root string) (Store, error) {
	if root == "" {
		return nil, errors.New("registry root required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve registry root: %w", err)
	}

	return &fileStore{
		basePath: filepath.Join(abs, contentsDir),
		locks:    make(map[string]*entryLock),
	}, nil
}

// fileStore 通过 entryLock 避免同一版本在进程内并发写入。
type fileStore struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Get(ctx context.Context, locator Locator) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.Path(locator)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &ReadResult{
		Entry: Entry{
			Locator:   locator,
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		},
		Reader: f,
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator Locator, body io.Reader) (*Entry, error) {
	filePath, err := s.Path(locator)
	if err != nil {
		return nil, err
	}

	unlock := s.lockEntry(locator)
	defer unlock()

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	written, err := copyWithContext(ctx, tempFile, body)
	if err == nil {
		// CreateTemp 固定使用 0600，rename 后需与索引文件保持一致的可读权限。
		err = tempFile.Chmod(blobPerm)
	}
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: written,
		ModTime:   info.ModTime(),
	}, nil
}

// Path 由 scope/name/version 推导内容路径，拒绝任何逃逸 contents/ 的结果。
func (s *fileStore) Path(locator Locator) (string, error) {
	for field, value := range map[string]string{
		"scope":   locator.Scope,
		"name":    locator.Name,
		"version": locator.Version,
	} {
		if value == "" {
			return "", fmt.Errorf("blob %s required", field)
		}
		if value == "." || value == ".." || strings.ContainsAny(value, `/\`) {
			return "", fmt.Errorf("invalid blob %s %q", field, value)
		}
	}

	filePath := filepath.Join(s.basePath, locator.Scope, locator.Name, locator.Version+Extension)
	if !strings.HasPrefix(filePath, s.basePath+string(filepath.Separator)) {
		return "", errors.New("invalid blob path")
	}
	return filePath, nil
}

func (s *fileStore) lockEntry(locator Locator) func() {
	key := locatorKey(locator)
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}

func locatorKey(locator Locator) string {
	return locator.Scope + "/" + locator.Name + "@" + locator.Version
}
