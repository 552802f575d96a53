package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pkgstore/internal/blobstore"
	"github.com/any-hub/pkgstore/internal/indexlog"
	"github.com/any-hub/pkgstore/internal/logging"
	"github.com/any-hub/pkgstore/internal/metrics"
	"github.com/any-hub/pkgstore/internal/pkgmodel"
)

const (
	indexDir       = "index"
	configFileName = "config.json"
)

// FSStore 是以本地目录为根的注册表存储。
type FSStore struct {
	root   string
	blobs  blobstore.Store
	opts   Options
	newLog func(path string) indexlog.Log
}

var _ Source = (*FSStore)(nil)

// NewFSStore 以 root 为注册表根目录构建存储；root 本身不要求已存在。
// root 已存在时解析符号链接，使 Ref 与 fallback 引用采用同一规范形式。
func NewFSStore(root string, opts Options) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("registry root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve registry root: %w", err)
	}
	// 已存在的根目录使用规范路径，与 FallbackSources 的结果可直接比较。
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	blobs, err := blobstore.NewStore(abs)
	if err != nil {
		return nil, err
	}
	return &FSStore{
		root:  abs,
		blobs: blobs,
		opts:  opts.withDefaults(),
		newLog: func(path string) indexlog.Log {
			return indexlog.NewFileLog(path)
		},
	}, nil
}

// Root 返回注册表根目录的绝对路径。
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) Ref() SourceRef { return PathRef(s.root) }

// IndexPath 返回包索引文件路径 R/index/<scope>/<name>。
func (s *FSStore) IndexPath(name pkgmodel.PackageName) string {
	return filepath.Join(s.root, indexDir, name.Scope(), name.Name())
}

// ContentPath 返回内容文件路径 R/contents/<scope>/<name>/<version>.zip。
func (s *FSStore) ContentPath(id pkgmodel.PackageId) (string, error) {
	return s.blobs.Path(blobLocator(id))
}

// ConfigPath 返回 R/index/config.json。
func (s *FSStore) ConfigPath() string {
	return filepath.Join(s.root, indexDir, configFileName)
}

// Publish 先向索引追加一行 manifest，再整体覆盖该版本的内容文件。
func (s *FSStore) Publish(ctx context.Context, manifest pkgmodel.Manifest, contents pkgmodel.PackageContents) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := manifest.MarshalLine()
	if err != nil {
		s.opts.Metrics.Publish(metrics.ResultError)
		return err
	}
	id := manifest.ID()
	name := id.Name()

	scopeDir := filepath.Join(s.root, indexDir, name.Scope())
	if err := os.MkdirAll(scopeDir, 0o755); err != nil {
		s.opts.Metrics.Publish(metrics.ResultError)
		return opError("create index directory", scopeDir, err)
	}

	indexPath := s.IndexPath(name)
	if err := s.newLog(indexPath).Append(line); err != nil {
		s.opts.Metrics.Publish(metrics.ResultError)
		return opError("append index", indexPath, err)
	}

	entry, err := s.blobs.Put(ctx, blobLocator(id), bytes.NewReader(contents.Bytes()))
	if err != nil {
		s.opts.Metrics.Publish(metrics.ResultError)
		path, _ := s.ContentPath(id)
		return opError("write content", path, err)
	}

	s.opts.Metrics.Publish(metrics.ResultOK)
	fields := logging.PackageFields("publish", name.String(), id.Version().String())
	fields["size_bytes"] = entry.SizeBytes
	s.opts.Logger.WithFields(fields).Info("package published")
	return nil
}

// Query 读取包索引并返回满足 req 的 manifest，顺序与发布顺序一致。
// 索引不存在返回 ErrPackageNotFound；任一记录损坏则整个查询失败。
func (s *FSStore) Query(ctx context.Context, req pkgmodel.PackageReq) ([]pkgmodel.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := req.Name()
	if name.IsZero() {
		return nil, fmt.Errorf("%w: request has no package name", pkgmodel.ErrInvalidName)
	}

	indexPath := s.IndexPath(name)
	records, err := s.newLog(indexPath).ReadAll()
	if err != nil {
		if errors.Is(err, indexlog.ErrLogNotFound) {
			s.opts.Metrics.Query(metrics.ResultNotFound)
			return nil, fmt.Errorf("could not open package %s from index: %w", name, ErrPackageNotFound)
		}
		s.opts.Metrics.Query(metrics.ResultError)
		return nil, opError("read index", indexPath, err)
	}

	matched := make([]pkgmodel.Manifest, 0, len(records))
	for i, record := range records {
		manifest, err := pkgmodel.ParseManifestLine(record)
		if err != nil {
			s.opts.Metrics.Query(metrics.ResultError)
			return nil, &ParseError{Package: name, Record: i + 1, Err: err}
		}
		if req.Matches(manifest.Package.Name, manifest.Package.Version) {
			matched = append(matched, manifest)
		}
	}

	if s.opts.Duplicates == DuplicatesLastWins {
		matched = lastWins(matched)
	}

	s.opts.Metrics.Query(metrics.ResultFound)
	return matched, nil
}

// Download 读取指定版本的全部内容字节。
func (s *FSStore) Download(ctx context.Context, id pkgmodel.PackageId) (pkgmodel.PackageContents, error) {
	result, err := s.blobs.Get(ctx, blobLocator(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			s.opts.Metrics.Download(metrics.ResultNotFound, 0)
			return pkgmodel.PackageContents{}, fmt.Errorf("%s: %w", id, ErrContentNotFound)
		}
		s.opts.Metrics.Download(metrics.ResultError, 0)
		path, _ := s.ContentPath(id)
		return pkgmodel.PackageContents{}, opError("read content", path, err)
	}
	defer result.Reader.Close()

	data, err := io.ReadAll(result.Reader)
	if err != nil {
		s.opts.Metrics.Download(metrics.ResultError, 0)
		return pkgmodel.PackageContents{}, opError("read content", result.Entry.FilePath, err)
	}

	s.opts.Metrics.Download(metrics.ResultFound, len(data))
	return pkgmodel.ContentsFromBytes(data), nil
}

// FallbackSources 读取 index/config.json，把每个条目解析为规范化的绝对路径；
// 相对路径以注册表根目录为基准，绝对路径原样使用。
func (s *FSStore) FallbackSources(ctx context.Context) ([]SourceRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	configPath := s.ConfigPath()
	raw, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", configPath, ErrConfigNotFound)
		}
		return nil, opError("read config", configPath, err)
	}

	cfg, err := pkgmodel.ParseIndexConfig(raw)
	if err != nil {
		return nil, opError("parse config", configPath, err)
	}

	refs := make([]SourceRef, 0, len(cfg.FallbackRegistries))
	var skipped *multierror.Error
	for _, entry := range cfg.FallbackRegistries {
		target := entry
		if !filepath.IsAbs(target) {
			target = filepath.Join(s.root, entry)
		}
		resolved, err := canonicalize(target)
		if err != nil {
			ferr := &FallbackError{Entry: entry, Path: target, Err: err}
			if s.opts.Fallbacks != FallbackSkipMissing {
				return nil, ferr
			}
			skipped = multierror.Append(skipped, ferr)
			continue
		}
		refs = append(refs, PathRef(resolved))
	}

	if err := skipped.ErrorOrNil(); err != nil {
		s.opts.Logger.WithFields(logrus.Fields{
			"action":   "fallback_sources",
			"registry": s.root,
			"skipped":  len(skipped.Errors),
		}).Warn(err.Error())
	}

	s.opts.Metrics.FallbacksResolved(len(refs))
	return refs, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// lastWins 对同一版本只保留最后一条记录，保持其在原序列中的位置。
func lastWins(manifests []pkgmodel.Manifest) []pkgmodel.Manifest {
	last := make(map[string]int, len(manifests))
	for i, m := range manifests {
		last[m.Package.Version.String()] = i
	}
	result := make([]pkgmodel.Manifest, 0, len(last))
	for i, m := range manifests {
		if last[m.Package.Version.String()] == i {
			result = append(result, m)
		}
	}
	return result
}

func blobLocator(id pkgmodel.PackageId) blobstore.Locator {
	return blobstore.Locator{
		Scope:   id.Name().Scope(),
		Name:    id.Name().Name(),
		Version: id.Version().String(),
	}
}
