package config

import (
	"os"
	"strconv"
	"time"
)

// Config compmatrix-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Identity IdentityConfig

	// directory 快照缓存 TTL（保存成功后做本地 merge 的同一份快照）
	DirectoryCacheTTL time.Duration
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

// IdentityConfig 外部身份服务配置（token → user/role 解析）
type IdentityConfig struct {
	HttpAddress string `yaml:"http_address"` // 身份服务地址
	APIKey      string `yaml:"api_key"`      // 服务间调用凭证
	Timeout     int    `yaml:"timeout"`      // 请求超时（秒）
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, compmatrix-data falls back to
	// the in-memory repos with seeded demo data (avoids empty pages with plain `go run`).
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "compmatrix")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 身份服务配置
	cfg.Identity.HttpAddress = getEnv("IDENTITY_HTTP_ADDRESS", "http://localhost:8081")
	cfg.Identity.APIKey = getEnv("IDENTITY_API_KEY", "")
	cfg.Identity.Timeout = parseInt(getEnv("IDENTITY_TIMEOUT", "10"), 10)

	cfg.DirectoryCacheTTL = time.Duration(parseInt(getEnv("DIRECTORY_CACHE_TTL", "300"), 300)) * time.Second

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
