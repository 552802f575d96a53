package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureOutput 将 CLI 的 stdout/stderr 重定向到内存，测试结束后恢复。
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = stdout, stderr
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
	return stdout, stderr
}

// configFixture 复用 internal/config 的样例配置；go test 在包目录（即仓库根目录）下运行。
func configFixture(name string) string {
	return filepath.Join("internal", "config", "testdata", name)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
