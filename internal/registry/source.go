package registry

import (
	"context"
	"fmt"

	"github.com/any-hub/pkgstore/internal/pkgmodel"
)

// SourceKind 区分 SourceRef 的寻址方式，目前只有本地路径。
type SourceKind string

const SourceKindPath SourceKind = "path"

// SourceRef 指向另一个可作为 Source 打开的注册表。
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	Path string     `json:"path"`
}

// PathRef 构造本地路径引用。
func PathRef(path string) SourceRef {
	return SourceRef{Kind: SourceKindPath, Path: path}
}

func (r SourceRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Path)
}

// Source 是注册表的查询能力接口，FSStore 与测试替身均实现它。
type Source interface {
	Ref() SourceRef
	Query(ctx context.Context, req pkgmodel.PackageReq) ([]pkgmodel.Manifest, error)
	Download(ctx context.Context, id pkgmodel.PackageId) (pkgmodel.PackageContents, error)
	FallbackSources(ctx context.Context) ([]SourceRef, error)
}
