package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认凭证文件：放在工作目录下，与 .env 同级
const defaultCredentialsFile = "service-account.yaml"

// ErrNoCredentials 三种凭证来源都不可用，属于启动期致命错误
var ErrNoCredentials = errors.New("no store credentials found")

const credentialsHelp = `请设置存储凭证，任选其一：
  1. export RELIEFHUB_CREDENTIALS=/path/to/credentials.yaml
  2. 在工作目录放置 service-account.yaml
  3. export POSTGRES_DSN="host=... user=... dbname=..."
凭证文件格式：
  postgres_dsn: "host=localhost user=reliefhub password=... dbname=reliefhub sslmode=disable"
  redis_addr: "localhost:6379"`

type Config struct {
	AppPort  string
	LogLevel string

	// Credentials 来源：env 路径 / 本地文件 / 环境默认值
	Credentials Credentials

	GovCron   string
	RTHKCron  string
	CronZone  string
	ItemDelay time.Duration
}

// Credentials 存储访问凭证
type Credentials struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	// Origin 记录凭证来自哪里，仅用于日志
	Origin string `yaml:"-"`
}

// Load 读取 .env 与环境变量；凭证缺失时返回 ErrNoCredentials
func Load() (*Config, error) {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:   getEnv("APP_PORT", "9000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		GovCron:   getEnv("GOV_CRON_SPEC", "0 * * * *"),
		RTHKCron:  getEnv("RTHK_CRON_SPEC", "*/30 * * * *"),
		CronZone:  getEnv("CRON_TIMEZONE", "Asia/Hong_Kong"),
		ItemDelay: getDuration("ITEM_DELAY", time.Second),
	}

	creds, err := ResolveCredentials(os.Getenv("RELIEFHUB_CREDENTIALS"), defaultCredentialsFile)
	if err != nil {
		return nil, err
	}
	cfg.Credentials = creds

	return cfg, nil
}

// ResolveCredentials 依次尝试：环境变量指定的文件 → 本地默认文件 → 环境默认 POSTGRES_DSN
func ResolveCredentials(envPath, localPath string) (Credentials, error) {
	if envPath != "" && fileExists(envPath) {
		return readCredentials(envPath)
	}
	if localPath != "" && fileExists(localPath) {
		return readCredentials(localPath)
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return Credentials{
			PostgresDSN: dsn,
			RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
			Origin:      "env",
		}, nil
	}
	return Credentials{}, fmt.Errorf("%w\n%s", ErrNoCredentials, credentialsHelp)
}

func readCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials %s: %w", path, err)
	}
	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	if strings.TrimSpace(c.PostgresDSN) == "" {
		return Credentials{}, fmt.Errorf("credentials %s: postgres_dsn is empty: %w", path, ErrNoCredentials)
	}
	if c.RedisAddr == "" {
		c.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	}
	c.Origin = path
	return c, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration 支持 "1s" 形式，也兼容纯数字毫秒
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
