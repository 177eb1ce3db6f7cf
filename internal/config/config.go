// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（JWT 密钥、数据库口令）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tss-admin/internal/apiserver/auth"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test" // 测试环境（集成测试 + E2E 共用）
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
//
// driver 支持 sqlite / postgres。sqlite 时 dsn 为文件路径；
// postgres 时由 host/port/user/name/sslmode 拼出连接串，
// 口令来自 .env（YAML 不存储任何密码）。显式 dsn 覆盖拼接结果。
type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Name    string `yaml:"name"`
	SSLMode string `yaml:"sslmode"`
}

// AuthConfig 认证配置
//
// token_ttl 为 0 表示会话令牌不过期（默认行为）。
type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	APIPort        string
	DatabaseDriver string
	DatabaseDSN    string
	Auth           auth.Config
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置，环境变量覆盖 YAML
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 构建最终配置
	cfg := &Config{
		Env:            env,
		APIPort:        getEnv("PORT", yamlCfg.Server.Port),
		DatabaseDriver: getEnv("DATABASE_DRIVER", yamlCfg.Database.Driver),
		DatabaseDSN:    getEnv("DATABASE_DSN", resolveDSN(yamlCfg.Database)),
		Auth: auth.Config{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:  yamlCfg.Auth.TokenTTL,
		},
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			DSN:     "data/tss-admin.db",
			Host:    "localhost",
			Port:    5432,
			User:    "tss",
			Name:    "tss_admin",
			SSLMode: "disable",
		},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// resolveDSN 根据驱动构建连接串
func resolveDSN(db DatabaseConfig) string {
	if db.Driver == "postgres" {
		if db.DSN != "" && strings.HasPrefix(db.DSN, "postgres") {
			return db.DSN
		}
		password := getEnv("DB_PASSWORD", "tss_dev_password")
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			db.User, password, db.Host, db.Port, db.Name, db.SSLMode)
	}
	return db.DSN
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DSN: %s}",
		c.Env, c.DatabaseDriver, maskPassword(c.DatabaseDSN))
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
