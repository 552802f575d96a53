package pkgmodel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxSegmentLength = 64

var segmentPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ErrInvalidName 表示 scope/name 不满足路径安全约束。
var ErrInvalidName = errors.New("invalid package name")

// PackageName 是不可变的 (scope, name) 对，两段都可直接作为目录名使用。
type PackageName struct {
	scope string
	name  string
}

// NewPackageName 校验两段后构造 PackageName。
func NewPackageName(scope, name string) (PackageName, error) {
	if err := validateSegment("scope", scope); err != nil {
		return PackageName{}, err
	}
	if err := validateSegment("name", name); err != nil {
		return PackageName{}, err
	}
	return PackageName{scope: scope, name: name}, nil
}

// MustPackageName 在校验失败时 panic，仅用于测试与常量初始化。
func MustPackageName(scope, name string) PackageName {
	n, err := NewPackageName(scope, name)
	if err != nil {
		panic(err)
	}
	return n
}

// ParsePackageName 解析 "scope/name" 形式的文本。
func ParsePackageName(raw string) (PackageName, error) {
	scope, name, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return PackageName{}, fmt.Errorf("%w: %q must be scope/name", ErrInvalidName, raw)
	}
	return NewPackageName(scope, name)
}

func (n PackageName) Scope() string { return n.scope }
func (n PackageName) Name() string  { return n.name }

// IsZero 表示未初始化的名称。
func (n PackageName) IsZero() bool {
	return n.scope == "" && n.name == ""
}

func (n PackageName) String() string {
	return n.scope + "/" + n.name
}

func (n PackageName) MarshalText() ([]byte, error) {
	if n.IsZero() {
		return nil, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	return []byte(n.String()), nil
}

func (n *PackageName) UnmarshalText(text []byte) error {
	parsed, err := ParsePackageName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

func validateSegment(field, value string) error {
	switch {
	case value == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidName, field)
	case len(value) > maxSegmentLength:
		return fmt.Errorf("%w: %s longer than %d characters", ErrInvalidName, field, maxSegmentLength)
	case value == "." || value == "..":
		return fmt.Errorf("%w: %s %q is a traversal segment", ErrInvalidName, field, value)
	case !segmentPattern.MatchString(value):
		return fmt.Errorf("%w: %s %q may only contain a-z, 0-9, '-' and '_'", ErrInvalidName, field, value)
	}
	return nil
}
