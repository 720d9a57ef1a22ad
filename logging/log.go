package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 日志门面接口。
// 说明：为了最小侵入，提供 Info/Warn/Error/Debug、对应的格式化版本与 With 方法。
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
	With(args ...any) Logger
}

// Options zap 日志器参数。
type Options struct {
	Level       string   // debug/info/warn/error，解析失败回退 info
	Encoding    string   // console/json
	OutputPaths []string // 默认 stderr
}

// ZapLogger 基于 zap SugaredLogger 的默认实现。
type ZapLogger struct{ l *zap.SugaredLogger }

// New 按参数构造 zap 日志器。
func New(opt Options) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(opt.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	encoding := opt.Encoding
	if encoding != "json" {
		encoding = "console"
	}
	outputs := opt.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{l: zl.Sugar()}, nil
}

// Wrap 用已有 zap.Logger 构造门面（测试中常配合 zaptest/observer 使用）。
func Wrap(l *zap.Logger) *ZapLogger { return &ZapLogger{l: l.Sugar()} }

func (z *ZapLogger) Info(ctx context.Context, msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z *ZapLogger) Warn(ctx context.Context, msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z *ZapLogger) Error(ctx context.Context, msg string, args ...any) { z.l.Errorw(msg, args...) }
func (z *ZapLogger) Debug(ctx context.Context, msg string, args ...any) { z.l.Debugw(msg, args...) }

func (z *ZapLogger) Infof(ctx context.Context, format string, args ...any) { z.l.Infof(format, args...) }
func (z *ZapLogger) Warnf(ctx context.Context, format string, args ...any) { z.l.Warnf(format, args...) }
func (z *ZapLogger) Errorf(ctx context.Context, format string, args ...any) {
	z.l.Errorf(format, args...)
}

func (z *ZapLogger) With(args ...any) Logger { return &ZapLogger{l: z.l.With(args...)} }

// Sync 刷新缓冲，进程退出前调用。
func (z *ZapLogger) Sync() error { return z.l.Sync() }

// 全局默认日志器，便于简化调用。
var defaultLogger Logger = mustDefault()

func mustDefault() Logger {
	l, err := New(Options{Level: "info"})
	if err != nil {
		return Wrap(zap.NewNop())
	}
	return l
}

// L 获取全局日志器。
func L() Logger { return defaultLogger }

// SetGlobal 替换全局日志器（如业务侧注入第三方实现）。
func SetGlobal(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}
