package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/any-hub/pkgstore/internal/config"
)

// InitLogger 按全局配置创建 JSON logger，并同步到 logrus 标准 logger。
// 日志文件不可用时退回 stdout，并在新 logger 上记录一条 logger_fallback 警告。
func InitLogger(cfg config.GlobalConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("无法解析日志级别: %w", err)
	}

	out, fallbackErr := openOutput(cfg)
	if fallbackErr != nil {
		fmt.Fprintf(os.Stderr, "logger_fallback: %v\n", fallbackErr)
	}

	logger := newJSONLogger(level, out)
	mirrorStandardLogger(logger)

	if fallbackErr != nil {
		logger.WithFields(logrus.Fields{
			"action": "logger_fallback",
			"path":   cfg.LogFilePath,
		}).Warn(fallbackErr.Error())
	}
	return logger, nil
}

// Discard 返回不产生任何输出的 logger。
func Discard() *logrus.Logger {
	return newJSONLogger(logrus.PanicLevel, io.Discard)
}

func newJSONLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	return logger
}

// mirrorStandardLogger 让仍使用 logrus 包级函数的代码输出到同一位置。
func mirrorStandardLogger(logger *logrus.Logger) {
	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(logger.Out)
	logrus.SetLevel(logger.GetLevel())
}

func openOutput(cfg config.GlobalConfig) (io.Writer, error) {
	if cfg.LogFilePath == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0o755); err != nil {
		return os.Stdout, fmt.Errorf("创建日志目录失败: %w", err)
	}
	return newRotator(cfg), nil
}

// newRotator 以 lumberjack 按大小切分日志；MaxSize 为 0 时使用 lumberjack 默认值。
func newRotator(cfg config.GlobalConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   cfg.LogCompress,
		LocalTime:  true,
	}
}
