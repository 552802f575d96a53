package pkgmodel

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion 表示版本号不是合法的 semver。
var ErrInvalidVersion = errors.New("invalid package version")

// PackageVersion 封装 semver 版本，比较语义完全交给 semver 库。
type PackageVersion struct {
	v *semver.Version
}

// ParseVersion 以严格 semver 语法解析版本号（不接受 v 前缀或缺省段）。
func ParseVersion(raw string) (PackageVersion, error) {
	v, err := semver.StrictNewVersion(raw)
	if err != nil {
		return PackageVersion{}, fmt.Errorf("%w %q: %v", ErrInvalidVersion, raw, err)
	}
	return PackageVersion{v: v}, nil
}

// MustVersion 在解析失败时 panic，仅用于测试。
func MustVersion(raw string) PackageVersion {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (v PackageVersion) IsZero() bool { return v.v == nil }

// Semver 暴露底层版本，供范围匹配使用。
func (v PackageVersion) Semver() *semver.Version { return v.v }

// Compare 返回 -1/0/1；零值视为最小。
func (v PackageVersion) Compare(other PackageVersion) int {
	switch {
	case v.v == nil && other.v == nil:
		return 0
	case v.v == nil:
		return -1
	case other.v == nil:
		return 1
	}
	return v.v.Compare(other.v)
}

func (v PackageVersion) Equal(other PackageVersion) bool {
	return v.Compare(other) == 0
}

func (v PackageVersion) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

func (v PackageVersion) MarshalText() ([]byte, error) {
	if v.v == nil {
		return nil, fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	return []byte(v.v.String()), nil
}

func (v *PackageVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
