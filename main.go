package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagecache/internal/cache"
	"github.com/any-hub/pagecache/internal/config"
	"github.com/any-hub/pagecache/internal/keyrule"
	"github.com/any-hub/pagecache/internal/logging"
	"github.com/any-hub/pagecache/internal/proxy"
	"github.com/any-hub/pagecache/internal/responsecache"
	"github.com/any-hub/pagecache/internal/server"
	"github.com/any-hub/pagecache/internal/server/routes"
	"github.com/any-hub/pagecache/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

const storageOpenTimeout = 10 * time.Second

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
		for k, v := range logging.StorageFields(cfg.Storage.Backend, cfg.Global.KeyRule, cfg.Global.WritePolicy) {
			fields[k] = v
		}
		fields["upstream"] = cfg.Global.Upstream
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 存储后端 → key 规则 → 缓存拦截器 → 源站代理 → Fiber server。
	app, closer, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}
	defer closer.Close()

	fields := logging.BaseFields("startup", opts.configPath)
	for k, v := range logging.StorageFields(cfg.Storage.Backend, cfg.Global.KeyRule, cfg.Global.WritePolicy) {
		fields[k] = v
	}
	fields["listen_port"] = cfg.Global.ListenPort
	fields["upstream"] = cfg.Global.Upstream
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildApp 组装完整的请求链路，返回的 io.Closer 负责释放存储连接。
func buildApp(cfg *config.Config, logger *logrus.Logger) (*fiber.App, io.Closer, error) {
	interceptor, closer, err := buildInterceptor(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	httpClient := server.NewUpstreamClient(cfg)
	proxyHandler, err := proxy.NewHandler(httpClient, logger, cfg.Global.Upstream)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Cache:      interceptor.Middleware(),
		Proxy:      proxyHandler,
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	routes.RegisterStatusRoutes(app, routes.StatusInfo{
		Upstream:    cfg.Global.Upstream,
		Backend:     cfg.Storage.Backend,
		KeyRule:     cfg.Global.KeyRule,
		WritePolicy: string(interceptor.Policy()),
	})
	return app, closer, nil
}

// buildInterceptor 按 [Storage] 选择写入端：filesystem 走根目录，其余经 cache.Open 建立。
func buildInterceptor(cfg *config.Config, logger *logrus.Logger) (*responsecache.Interceptor, io.Closer, error) {
	rule, ok := keyrule.Resolve(cfg.Global.KeyRule)
	if !ok {
		return nil, nil, fmt.Errorf("key rule %s is not registered", cfg.Global.KeyRule)
	}
	policy, err := responsecache.ParseWritePolicy(cfg.Global.WritePolicy)
	if err != nil {
		return nil, nil, err
	}

	opts := responsecache.Options{
		KeyRule:     rule.Keyer,
		Logger:      logger,
		WritePolicy: policy,
		Backend:     cfg.Storage.Backend,
	}
	var closer io.Closer = cache.NopCloser{}
	if cfg.Storage.IsFilesystem() {
		opts.Root = cfg.Storage.Root
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), storageOpenTimeout)
		defer cancel()
		sink, sinkCloser, err := cache.Open(ctx, cfg.Storage.OpenOptions())
		if err != nil {
			return nil, nil, err
		}
		opts.Store = sink
		closer = sinkCloser
	}

	interceptor, err := responsecache.New(opts)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return interceptor, closer, nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("pagecache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 PAGECACHE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("PAGECACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// printVersion 输出注入的版本 + 提交信息。
func printVersion() {
	fmt.Fprintln(stdOut, version.Full())
}

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
