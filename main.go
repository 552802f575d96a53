package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/pkgstore/internal/config"
	"github.com/any-hub/pkgstore/internal/logging"
	"github.com/any-hub/pkgstore/internal/metrics"
	"github.com/any-hub/pkgstore/internal/registry"
	"github.com/any-hub/pkgstore/internal/server"
	"github.com/any-hub/pkgstore/internal/server/routes"
	"github.com/any-hub/pkgstore/internal/snapshot"
	"github.com/any-hub/pkgstore/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	dumpLayout  bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["registry_root"] = cfg.Registry.Root
		fields["publish_mode"] = cfg.Registry.PublishMode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	if opts.dumpLayout {
		return dumpLayout(cfg.Registry.Root)
	}

	storeOpts, err := buildStoreOptions(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "解析存储策略失败: %v\n", err)
		return 1
	}

	// 启动顺序：配置 → 主注册表 → fallback 链 → Fiber server，
	// 所有请求共享同一个 store 与 metrics 实例。
	store, err := registry.NewFSStore(cfg.Registry.Root, storeOpts)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化注册表失败: %v\n", err)
		return 1
	}
	chain := registry.NewChain(store, registry.PathOpener(storeOpts), logger)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["registry_root"] = store.Root()
	fields["listen_port"] = cfg.Global.ListenPort
	fields["publish_mode"] = cfg.Registry.PublishMode()
	fields["duplicate_policy"] = cfg.Registry.DuplicatePolicy
	fields["fallback_policy"] = cfg.Registry.FallbackPolicy
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, store, chain, storeOpts.Metrics, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildStoreOptions 将配置中的策略字符串转换为存储层选项。
func buildStoreOptions(cfg *config.Config, logger *logrus.Logger) (registry.Options, error) {
	duplicates, err := registry.ParseDuplicatePolicy(cfg.Registry.DuplicatePolicy)
	if err != nil {
		return registry.Options{}, err
	}
	fallbacks, err := registry.ParseFallbackPolicy(cfg.Registry.FallbackPolicy)
	if err != nil {
		return registry.Options{}, err
	}

	opts := registry.Options{
		Logger:     logger,
		Duplicates: duplicates,
		Fallbacks:  fallbacks,
	}
	if cfg.Registry.EnableMetrics {
		opts.Metrics = metrics.NewRecorder()
	}
	return opts, nil
}

// dumpLayout 以 YAML 打印注册表根目录的快照，内容文件以摘要表示。
func dumpLayout(root string) int {
	tree, err := snapshot.Capture(root, snapshot.WithBinaryDigest())
	if err != nil {
		fmt.Fprintf(stdErr, "读取注册表目录失败: %v\n", err)
		return 1
	}
	out, err := tree.Render()
	if err != nil {
		fmt.Fprintf(stdErr, "渲染快照失败: %v\n", err)
		return 1
	}
	fmt.Fprint(stdOut, out)
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("pkgstore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		dump       bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 PKGSTORE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&dump, "dump-layout", false, "以 YAML 打印注册表目录结构后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("PKGSTORE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		dumpLayout:  dump,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, store *registry.FSStore, chain *registry.Chain, recorder *metrics.Recorder, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Resolver:     chain,
		Publisher:    store,
		AllowPublish: cfg.Registry.AllowPublish,
		BodyLimit:    cfg.Global.BodyLimit,
		ReadTimeout:  cfg.Global.ReadTimeout.DurationValue(),
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticRoutes(app, routes.DiagnosticsOptions{
		Sources: chain,
		Metrics: recorder,
		Version: version.Full(),
	})

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
