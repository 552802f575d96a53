package pkgmodel

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// PackageIndexConfig 对应 index/config.json。
type PackageIndexConfig struct {
	API                string   `json:"api,omitempty"`
	FallbackRegistries []string `json:"fallback_registries"`
}

// ParseIndexConfig 解码 config.json 内容。
func ParseIndexConfig(data []byte) (PackageIndexConfig, error) {
	var cfg PackageIndexConfig
	if err := sonic.ConfigStd.Unmarshal(data, &cfg); err != nil {
		return PackageIndexConfig{}, fmt.Errorf("decode index config: %w", err)
	}
	return cfg, nil
}

// Marshal 编码为缩进 JSON，便于测试与工具写出 config.json。
func (c PackageIndexConfig) Marshal() ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(c, "", "  ")
}
