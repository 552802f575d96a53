package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixturePath 返回 testdata 下的配置样例。
func fixturePath(name string) string {
	return filepath.Join("testdata", name)
}

// writeConfig 把内联 TOML 写入临时目录，返回配置文件路径。
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(body)+"\n"), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}
