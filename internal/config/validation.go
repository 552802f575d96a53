package config

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedDuplicatePolicies = map[string]struct{}{
	"keep-all":  {},
	"last-wins": {},
}

var supportedFallbackPolicies = map[string]struct{}{
	"fail-fast":    {},
	"skip-missing": {},
}

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别 "+g.LogLevel)
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}
	if g.ReadTimeout.DurationValue() <= 0 {
		return newFieldError("Global.ReadTimeout", "必须大于 0")
	}
	if g.BodyLimit <= 0 {
		return newFieldError("Global.BodyLimit", "必须大于 0")
	}

	r := c.Registry
	if strings.TrimSpace(r.Root) == "" {
		return newFieldError(registryField("Root"), "不能为空")
	}
	if _, ok := supportedDuplicatePolicies[r.DuplicatePolicy]; !ok {
		return newFieldError(registryField("DuplicatePolicy"), "仅支持 keep-all/last-wins")
	}
	if _, ok := supportedFallbackPolicies[r.FallbackPolicy]; !ok {
		return newFieldError(registryField("FallbackPolicy"), "仅支持 fail-fast/skip-missing")
	}

	return nil
}
