package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀，例如 CONSOLE_API_BASE_URL。
const EnvPrefix = "CONSOLE"

// Load 加载配置：.env（可选）-> YAML 文件（可选）-> 环境变量覆盖 -> 默认值。
// 参数：file 为空时仅使用环境变量与默认值。
func Load(file string) (Config, error) {
	var c Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal config: %w", err)
	}
	c.withDefaults()
	return c, nil
}

// Dump 以 YAML 输出生效配置（敏感字段打码）。
func Dump(c Config) ([]byte, error) {
	if c.API.Token != "" {
		c.API.Token = "***"
	}
	if c.Storage.RedisPassword != "" {
		c.Storage.RedisPassword = "***"
	}
	return yaml.Marshal(c)
}

// bindKeys 让 viper 在没有配置文件时也能从环境变量解出嵌套键。
func bindKeys(v *viper.Viper) {
	for _, k := range []string{
		"api.base_url", "api.token", "api.timeout",
		"poll.task_interval", "poll.telemetry_interval",
		"storage.driver", "storage.dsn", "storage.redis_addr", "storage.redis_password", "storage.redis_db", "storage.namespace", "storage.token_store",
		"telemetry.source",
		"logger.level", "logger.encoding", "logger.output_paths",
		"http.listen",
	} {
		_ = v.BindEnv(k)
	}
}
