// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
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
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
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
	Upload   UploadConfig   `yaml:"upload"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Redis    RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

// AuthConfig 认证配置；密钥只从环境变量读取
type AuthConfig struct {
	TokenTTL         time.Duration `yaml:"token_ttl"`
	CookieExpireDays int           `yaml:"cookie_expire_days"`
	SecureCookie     bool          `yaml:"secure_cookie"`
	ResetTokenTTL    time.Duration `yaml:"reset_token_ttl"`
}

// UploadConfig 照片上传配置
type UploadConfig struct {
	Backend  string `yaml:"backend"` // disk | minio
	Dir      string `yaml:"dir"`     // disk 后端的落盘目录
	MaxBytes int64  `yaml:"max_bytes"`

	MinIO MinIOUploadConfig `yaml:"minio"`
}

type MinIOUploadConfig struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// SMTPConfig 邮件发送配置；账号密码从环境变量读取
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
}

// GeocoderConfig 地理编码配置
type GeocoderConfig struct {
	BaseURL string `yaml:"base_url"`
}

// RedisConfig 地理编码缓存用的 Redis；host 为空则不启用缓存
type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env         Environment
	APIPort     string
	CORSOrigins []string

	MongoURI     string
	DatabaseName string

	JWTSecret        string
	TokenTTL         time.Duration
	CookieExpireDays int
	SecureCookie     bool
	ResetTokenTTL    time.Duration

	Upload UploadConfig
	// MinIO 凭据（仅 backend=minio 时使用）
	MinIOAccessKey string
	MinIOSecretKey string

	SMTP         SMTPConfig
	SMTPUsername string
	SMTPPassword string

	GeocoderURL string
	RedisURL    string // 空表示不启用地理编码缓存
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
// 3. 构建最终配置
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
		Env:         env,
		APIPort:     getEnv("PORT", yamlCfg.Server.Port),
		CORSOrigins: yamlCfg.Server.CORSOrigins,

		MongoURI:     getEnv("MONGO_URI", yamlCfg.Database.URI),
		DatabaseName: getEnv("MONGO_DB", yamlCfg.Database.Name),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		TokenTTL:         yamlCfg.Auth.TokenTTL,
		CookieExpireDays: yamlCfg.Auth.CookieExpireDays,
		SecureCookie:     yamlCfg.Auth.SecureCookie,
		ResetTokenTTL:    yamlCfg.Auth.ResetTokenTTL,

		Upload:         yamlCfg.Upload,
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),

		SMTP:         yamlCfg.SMTP,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		GeocoderURL: getEnv("GEOCODER_URL", yamlCfg.Geocoder.BaseURL),
		RedisURL:    buildRedisURL(yamlCfg.Redis),
	}

	cfg.validate()

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080", CORSOrigins: []string{"*"}},
		Database: DatabaseConfig{URI: "mongodb://localhost:27017", Name: "bootcamp_admin"},
		Auth: AuthConfig{
			TokenTTL:         30 * 24 * time.Hour,
			CookieExpireDays: 30,
			ResetTokenTTL:    10 * time.Minute,
		},
		Upload: UploadConfig{
			Backend:  "disk",
			Dir:      "public/uploads",
			MaxBytes: 1 << 20,
			MinIO:    MinIOUploadConfig{Bucket: "bootcamp-photos"},
		},
		SMTP:     SMTPConfig{Host: "localhost", Port: 25, FromName: "Bootcamp Admin", FromEmail: "noreply@bootcamp.local"},
		Geocoder: GeocoderConfig{BaseURL: "https://nominatim.openstreetmap.org"},
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

// buildRedisURL 构建 Redis 连接字符串；host 为空返回空串
func buildRedisURL(redis RedisConfig) string {
	if redis.Host == "" {
		return ""
	}
	port := redis.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("redis://%s/%d", joinHostPort(redis.Host, port), redis.DB)
}

func joinHostPort(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
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
	return fmt.Sprintf("Config{Env: %s, DB: %s/%s, Geocoder: %s}",
		c.Env, maskPassword(c.MongoURI), c.DatabaseName, c.GeocoderURL)
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:/@]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

// validate 验证并填充默认值
func (c *Config) validate() {
	if c.TokenTTL == 0 {
		c.TokenTTL = 30 * 24 * time.Hour
	}
	if c.CookieExpireDays == 0 {
		c.CookieExpireDays = 30
	}
	if c.ResetTokenTTL == 0 {
		c.ResetTokenTTL = 10 * time.Minute
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 1 << 20
	}
	if c.Upload.Backend == "" {
		c.Upload.Backend = "disk"
	}
	if c.JWTSecret == "" && c.Env != EnvProduction {
		// 非生产环境给出可用的默认密钥，生产环境由启动方校验
		c.JWTSecret = "dev-insecure-secret"
	}
}
