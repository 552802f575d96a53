package pkgmodel

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// PackageReq 是调用方提供的查询谓词：包名 + 版本范围。
type PackageReq struct {
	name       PackageName
	constraint *semver.Constraints
}

// NewPackageReq 以 semver 范围语法（如 ">=1.0.0, <2.0.0"）构造请求；
// 空字符串或 "*" 匹配所有版本。
func NewPackageReq(name PackageName, rangeText string) (PackageReq, error) {
	rangeText = strings.TrimSpace(rangeText)
	if rangeText == "" || rangeText == "*" {
		return PackageReq{name: name}, nil
	}
	c, err := semver.NewConstraint(rangeText)
	if err != nil {
		return PackageReq{}, fmt.Errorf("invalid version range %q for %s: %w", rangeText, name, err)
	}
	return PackageReq{name: name, constraint: c}, nil
}

// ParsePackageReq 解析 "scope/name@range"，省略 @range 时匹配全部版本。
func ParsePackageReq(raw string) (PackageReq, error) {
	namePart, rangePart, _ := strings.Cut(strings.TrimSpace(raw), "@")
	name, err := ParsePackageName(namePart)
	if err != nil {
		return PackageReq{}, err
	}
	return NewPackageReq(name, rangePart)
}

func (r PackageReq) Name() PackageName { return r.name }

// Matches 判断 (name, version) 是否满足请求。
func (r PackageReq) Matches(name PackageName, version PackageVersion) bool {
	if name != r.name {
		return false
	}
	if r.constraint == nil {
		return true
	}
	if version.IsZero() {
		return false
	}
	return r.constraint.Check(version.Semver())
}

func (r PackageReq) String() string {
	if r.constraint == nil {
		return r.name.String() + "@*"
	}
	return r.name.String() + "@" + r.constraint.String()
}
