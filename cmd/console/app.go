package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/config"
	"github.com/mengeric/gameserver-console-go/console"
	"github.com/mengeric/gameserver-console-go/logging"
	"github.com/mengeric/gameserver-console-go/metrics"
	"github.com/mengeric/gameserver-console-go/scheduler"
	"github.com/mengeric/gameserver-console-go/storage"
	"github.com/mengeric/gameserver-console-go/storage/gormstore"
	"github.com/mengeric/gameserver-console-go/storage/keyringstore"
	"github.com/mengeric/gameserver-console-go/storage/memstore"
	"github.com/mengeric/gameserver-console-go/storage/redisstore"
	"github.com/mengeric/gameserver-console-go/task"
)

// app 一次命令执行所需的全部组件。
type app struct {
	cfg     config.Config
	kv      storage.KV
	console *console.Console
	log     *logging.ZapLogger
	out     io.Writer
}

// withApp 按 --config 组装控制台，执行 fn 后释放资源。
func withApp(ctx context.Context, cmd *cli.Command, fn func(a *app) error) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.out = cmd.Root().Writer
	defer a.close()
	return fn(a)
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	lg, err := logging.New(logging.Options{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding, OutputPaths: cfg.Logger.OutputPaths})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.SetGlobal(lg)

	kv, err := openKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.TokenStore == "keyring" {
		kv = keyringstore.Wrap(kv, "", task.TokenKey)
	}
	api := client.NewHTTPConsoleAPI(cfg.API.BaseURL, cfg.API.Timeout)
	opts := []console.Option{
		console.WithClientAPI(api),
		console.WithKV(kv),
		console.WithPollEvery(cfg.Poll.TaskInterval),
		console.WithTelemetryEvery(cfg.Poll.TelemetryInterval),
	}
	if src := telemetrySource(cfg.Telemetry); src != nil {
		opts = append(opts, console.WithSystemInfoSource(src))
	}
	c, err := console.NewConsole(ctx, opts...)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	// 配置中的 Token 优先于登录保存的 Token
	if cfg.API.Token != "" {
		api.SetToken(cfg.API.Token)
	}
	return &app{cfg: cfg, kv: kv, console: c, log: lg}, nil
}

func (a *app) close() {
	a.console.Close()
	if err := a.kv.Close(); err != nil {
		logging.L().Warn(context.Background(), "close storage failed", "err", err)
	}
	_ = a.log.Sync()
}

// openKV 按配置打开持久存储。
func openKV(ctx context.Context, sc config.StorageConfig) (storage.KV, error) {
	switch sc.Driver {
	case "memory":
		return memstore.New(), nil
	case "sqlite", "postgres":
		s, err := gormstore.Open(sc.Driver, sc.DSN, sc.Namespace)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := redisstore.Open(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB, sc.Namespace)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
}

// telemetrySource local 时在本机采集；否则返回 nil，使用后端接口。
func telemetrySource(tc config.TelemetryConfig) scheduler.SystemInfoSource {
	if tc.Source == "local" {
		return metrics.LocalSource{}
	}
	return nil
}
