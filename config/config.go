package config

import "time"

// Config 控制台运行所需的完整配置。
// 功能：后端地址与认证、轮询周期、持久存储、遥测来源、日志与本地视图接口。
type Config struct {
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Poll      PollConfig      `mapstructure:"poll" yaml:"poll"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"` // 形如 http://127.0.0.1:8000/api/
	Token   string        `mapstructure:"token" yaml:"token"`       // 为空时使用持久存储中登录得到的 Token
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`   // 所有请求共用的超时
}

type PollConfig struct {
	TaskInterval      time.Duration `mapstructure:"task_interval" yaml:"task_interval"`
	TelemetryInterval time.Duration `mapstructure:"telemetry_interval" yaml:"telemetry_interval"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver" yaml:"driver"` // memory/sqlite/postgres/redis
	DSN           string `mapstructure:"dsn" yaml:"dsn"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	Namespace     string `mapstructure:"namespace" yaml:"namespace"`
	TokenStore    string `mapstructure:"token_store" yaml:"token_store"` // kv/keyring
}

type TelemetryConfig struct {
	Source string `mapstructure:"source" yaml:"source"` // remote/local
}

type LoggerConfig struct {
	Level       string   `mapstructure:"level" yaml:"level"`
	Encoding    string   `mapstructure:"encoding" yaml:"encoding"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// 默认值与浏览器控制台保持一致：任务 5s、遥测 3s、请求超时 10s。
const (
	DefaultBaseURL           = "http://127.0.0.1:8000/api/"
	DefaultTimeout           = 10 * time.Second
	DefaultTaskInterval      = 5 * time.Second
	DefaultTelemetryInterval = 3 * time.Second
)

// withDefaults 填充默认值。
func (c *Config) withDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultTimeout
	}
	if c.Poll.TaskInterval <= 0 {
		c.Poll.TaskInterval = DefaultTaskInterval
	}
	if c.Poll.TelemetryInterval <= 0 {
		c.Poll.TelemetryInterval = DefaultTelemetryInterval
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		c.Storage.DSN = "console.db"
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = "default"
	}
	if c.Storage.TokenStore == "" {
		c.Storage.TokenStore = "kv"
	}
	if c.Telemetry.Source == "" {
		c.Telemetry.Source = "remote"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = "127.0.0.1:8090"
	}
}
