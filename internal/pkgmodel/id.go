package pkgmodel

import (
	"fmt"
	"strings"
)

// PackageId 唯一标识一个已发布制品，对应且仅对应一个内容文件。
type PackageId struct {
	name    PackageName
	version PackageVersion
}

func NewPackageId(name PackageName, version PackageVersion) PackageId {
	return PackageId{name: name, version: version}
}

// ParsePackageId 解析 "scope/name@version"。
func ParsePackageId(raw string) (PackageId, error) {
	namePart, versionPart, ok := strings.Cut(strings.TrimSpace(raw), "@")
	if !ok {
		return PackageId{}, fmt.Errorf("package id %q must be scope/name@version", raw)
	}
	name, err := ParsePackageName(namePart)
	if err != nil {
		return PackageId{}, err
	}
	version, err := ParseVersion(versionPart)
	if err != nil {
		return PackageId{}, err
	}
	return NewPackageId(name, version), nil
}

func (id PackageId) Name() PackageName       { return id.name }
func (id PackageId) Version() PackageVersion { return id.version }

func (id PackageId) String() string {
	return id.name.String() + "@" + id.version.String()
}
