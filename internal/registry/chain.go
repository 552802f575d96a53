package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/pkgstore/internal/pkgmodel"
)

// Opener 根据 SourceRef 打开一个 Source。
type Opener func(ref SourceRef) (Source, error)

// PathOpener 以相同的 Options 打开本地路径注册表。
func PathOpener(opts Options) Opener {
	return func(ref SourceRef) (Source, error) {
		if ref.Kind != SourceKindPath {
			return nil, fmt.Errorf("unsupported source kind %q", ref.Kind)
		}
		return NewFSStore(ref.Path, opts)
	}
}

// Chain 先查询主注册表，未命中时按广度优先依次查询 fallback 注册表。
// 以 SourceRef 去重，环形配置只会访问每个注册表一次。
type Chain struct {
	primary Source
	open    Opener
	logger  *logrus.Logger
}

// NewChain 构造 fallback 链；logger 可为 nil。
func NewChain(primary Source, open Opener, logger *logrus.Logger) *Chain {
	return &Chain{primary: primary, open: open, logger: logger}
}

// errStopWalk 由 visit 回调返回，表示已得到结果、无需继续遍历。
var errStopWalk = errors.New("stop walk")

// walk 按 BFS 顺序访问注册表，只有在 visit 未终止时才会展开下一层 fallback。
func (c *Chain) walk(ctx context.Context, visit func(Source) error) error {
	queue := []Source{c.primary}
	seen := map[string]struct{}{c.primary.Ref().String(): {}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := queue[0]
		queue = queue[1:]

		if err := visit(current); err != nil {
			if errors.Is(err, errStopWalk) {
				return nil
			}
			return err
		}

		refs, err := current.FallbackSources(ctx)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				continue
			}
			return fmt.Errorf("fallback sources of %s: %w", current.Ref(), err)
		}
		for _, ref := range refs {
			key := ref.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			next, err := c.open(ref)
			if err != nil {
				return fmt.Errorf("open fallback %s: %w", ref, err)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// Sources 返回整条链上的注册表引用（含主注册表），顺序即查询顺序。
func (c *Chain) Sources(ctx context.Context) ([]SourceRef, error) {
	var refs []SourceRef
	err := c.walk(ctx, func(s Source) error {
		refs = append(refs, s.Ref())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Query 返回第一个拥有该包索引的注册表的查询结果及其引用。
func (c *Chain) Query(ctx context.Context, req pkgmodel.PackageReq) ([]pkgmodel.Manifest, SourceRef, error) {
	var (
		result []pkgmodel.Manifest
		from   SourceRef
	)
	err := c.walk(ctx, func(s Source) error {
		manifests, err := s.Query(ctx, req)
		if err != nil {
			if errors.Is(err, ErrPackageNotFound) {
				c.debug("query", s.Ref(), req.Name().String())
				return nil
			}
			return err
		}
		result, from = manifests, s.Ref()
		return errStopWalk
	})
	if err != nil {
		return nil, SourceRef{}, err
	}
	if from.Kind == "" {
		return nil, SourceRef{}, fmt.Errorf("%s: %w", req.Name(), ErrPackageNotFound)
	}
	return result, from, nil
}

// Download 返回第一个持有该版本内容的注册表中的字节。
func (c *Chain) Download(ctx context.Context, id pkgmodel.PackageId) (pkgmodel.PackageContents, SourceRef, error) {
	var (
		contents pkgmodel.PackageContents
		from     SourceRef
	)
	err := c.walk(ctx, func(s Source) error {
		data, err := s.Download(ctx, id)
		if err != nil {
			if errors.Is(err, ErrContentNotFound) {
				c.debug("download", s.Ref(), id.String())
				return nil
			}
			return err
		}
		contents, from = data, s.Ref()
		return errStopWalk
	})
	if err != nil {
		return pkgmodel.PackageContents{}, SourceRef{}, err
	}
	if from.Kind == "" {
		return pkgmodel.PackageContents{}, SourceRef{}, fmt.Errorf("%s: %w", id, ErrContentNotFound)
	}
	return contents, from, nil
}

func (c *Chain) debug(action string, ref SourceRef, subject string) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"action":  action,
		"source":  ref.String(),
		"subject": subject,
	}).Debug("not found, trying next source")
}
