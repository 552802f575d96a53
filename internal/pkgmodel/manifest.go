package pkgmodel

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrInvalidManifest 表示 manifest 缺少 package.name / package.version。
var ErrInvalidManifest = errors.New("invalid manifest")

// lineCodec 使用与 encoding/json 一致的配置（map 键排序、紧凑输出），
// 保证同一 manifest 每次序列化得到完全相同的一行。
var lineCodec = sonic.ConfigStd

// PackageMetadata 对应 manifest 中的 [package] 段。
type PackageMetadata struct {
	Name        PackageName    `json:"name"`
	Version     PackageVersion `json:"version"`
	Registry    string         `json:"registry,omitempty"`
	Realm       string         `json:"realm,omitempty"`
	Description string         `json:"description,omitempty"`
	License     string         `json:"license,omitempty"`
	Authors     []string       `json:"authors,omitempty"`
	Include     []string       `json:"include,omitempty"`
	Exclude     []string       `json:"exclude,omitempty"`
	Private     bool           `json:"private,omitempty"`
}

// PlaceInfo 描述包被安装到的位置，存储层只透传。
type PlaceInfo struct {
	SharedPackages string `json:"shared-packages,omitempty"`
	ServerPackages string `json:"server-packages,omitempty"`
}

// Manifest 描述一个已发布版本的元数据，发布后不可变。
type Manifest struct {
	Package            PackageMetadata   `json:"package"`
	Place              PlaceInfo         `json:"place"`
	Dependencies       map[string]string `json:"dependencies"`
	ServerDependencies map[string]string `json:"server-dependencies"`
	DevDependencies    map[string]string `json:"dev-dependencies"`
}

// NewManifest 构造只含必填字段的 manifest。
func NewManifest(name PackageName, version PackageVersion) Manifest {
	return Manifest{
		Package: PackageMetadata{Name: name, Version: version},
	}
}

// ID 返回 manifest 对应的 PackageId。
func (m Manifest) ID() PackageId {
	return NewPackageId(m.Package.Name, m.Package.Version)
}

// Validate 检查 name/version 已设置。
func (m Manifest) Validate() error {
	if m.Package.Name.IsZero() {
		return fmt.Errorf("%w: package.name is required", ErrInvalidManifest)
	}
	if m.Package.Version.IsZero() {
		return fmt.Errorf("%w: package.version is required", ErrInvalidManifest)
	}
	return nil
}

// MarshalLine 将 manifest 编码为一行 JSON（不含换行符）。
func (m Manifest) MarshalLine() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := lineCodec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest %s: %w", m.ID(), err)
	}
	return data, nil
}

// ParseManifestLine 解码索引文件中的一行记录。
func ParseManifestLine(line []byte) (Manifest, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Manifest{}, fmt.Errorf("%w: empty record", ErrInvalidManifest)
	}
	var m Manifest
	if err := lineCodec.Unmarshal(line, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
