package registry

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/pkgstore/internal/logging"
	"github.com/any-hub/pkgstore/internal/metrics"
)

// DuplicatePolicy 决定同一版本被多次发布时查询的返回方式。
type DuplicatePolicy string

const (
	// DuplicatesKeepAll 原样返回所有记录（按发布顺序）。
	DuplicatesKeepAll DuplicatePolicy = "keep-all"
	// DuplicatesLastWins 每个版本只保留最后一次发布的记录。
	DuplicatesLastWins DuplicatePolicy = "last-wins"
)

// FallbackPolicy 决定 fallback 路径无法解析时的处理方式。
type FallbackPolicy string

const (
	// FallbackFailFast 任一路径无法解析即整体失败。
	FallbackFailFast FallbackPolicy = "fail-fast"
	// FallbackSkipMissing 跳过无法解析的路径并记录警告。
	FallbackSkipMissing FallbackPolicy = "skip-missing"
)

// ParseDuplicatePolicy 解析配置值，空字符串回退为 keep-all。
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return DuplicatesKeepAll, nil
	case DuplicatesKeepAll, DuplicatesLastWins:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported duplicate policy: %s", raw)
	}
}

// ParseFallbackPolicy 解析配置值，空字符串回退为 fail-fast。
func ParseFallbackPolicy(raw string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return FallbackFailFast, nil
	case FallbackFailFast, FallbackSkipMissing:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported fallback policy: %s", raw)
	}
}

// Options 控制 FSStore 的可选行为，零值即默认行为。
type Options struct {
	Logger     *logrus.Logger
	Metrics    *metrics.Recorder
	Duplicates DuplicatePolicy
	Fallbacks  FallbackPolicy
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Duplicates == "" {
		o.Duplicates = DuplicatesKeepAll
	}
	if o.Fallbacks == "" {
		o.Fallbacks = FallbackFailFast
	}
	return o
}
