package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量覆盖的前缀，例如 PKGSTORE_LISTENPORT、PKGSTORE_REGISTRY_ROOT。
const EnvPrefix = "PKGSTORE"

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量覆盖与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyRegistryDefaults(&cfg.Registry)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 相对路径以配置文件所在目录为基准，保证从任意工作目录启动时结果一致。
	root := cfg.Registry.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(filepath.Dir(path), root)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("无法解析注册表目录: %w", err)
	}
	cfg.Registry.Root = absRoot

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ReadTimeout", "30s")
	v.SetDefault("BodyLimit", 64*1024*1024)
	v.SetDefault("Registry.Root", "./registry")
	v.SetDefault("Registry.AllowPublish", false)
	v.SetDefault("Registry.DuplicatePolicy", "keep-all")
	v.SetDefault("Registry.FallbackPolicy", "fail-fast")
	v.SetDefault("Registry.EnableMetrics", true)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.ReadTimeout.DurationValue() == 0 {
		g.ReadTimeout = Duration(30 * time.Second)
	}
	if g.BodyLimit == 0 {
		g.BodyLimit = 64 * 1024 * 1024
	}
}

func applyRegistryDefaults(r *RegistryConfig) {
	r.DuplicatePolicy = strings.ToLower(strings.TrimSpace(r.DuplicatePolicy))
	if r.DuplicatePolicy == "" {
		r.DuplicatePolicy = "keep-all"
	}
	r.FallbackPolicy = strings.ToLower(strings.TrimSpace(r.FallbackPolicy))
	if r.FallbackPolicy == "" {
		r.FallbackPolicy = "fail-fast"
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
