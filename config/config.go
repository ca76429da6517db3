package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置，启动时从 .env 和环境变量解析
type Config struct {
	// 数据库
	DBDriver       string // mysql 或 sqlite
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	DBMaxOpenConns int

	// 应用
	AppDebug       bool
	ServerPort     string
	CORSOrigins    []string
	TrustedProxies []string // 为空时直接使用连接地址作为投票者IP

	// 会话
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	// Redis（会话存储）
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisMock     bool
}

// Load 加载 .env 文件（不存在时忽略），已存在的环境变量优先
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("加载 .env 文件失败: %v", err)
	}
	return FromEnv()
}

// FromEnv 仅从当前环境变量构建配置
func FromEnv() Config {
	password := getEnv("DB_PASSWORD", "")
	if password == "" {
		// 旧版部署使用 DB_PASS
		password = getEnv("DB_PASS", "")
	}

	cfg := Config{
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBName:         getEnv("DB_NAME", "deullam"),
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     password,
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),

		AppDebug:       getEnvBool("APP_DEBUG", false),
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisMock:     getEnvBool("REDIS_MOCK", false),
	}

	if cfg.SessionSecret == "" {
		log.Println("警告: 未设置 SESSION_SECRET，使用开发环境默认值")
		cfg.SessionSecret = "dev-session-secret"
	}

	return cfg
}

// DSN 构建数据库连接字符串
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		// sqlite 时 DB_NAME 是文件路径，可带查询参数（如 mode=memory）
		sep := "?"
		if strings.Contains(c.DBName, "?") {
			sep = "&"
		}
		return fmt.Sprintf("file:%s%s_foreign_keys=on", c.DBName, sep)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv 获取环境变量值或使用默认值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("环境变量 %s 不是有效整数: %q，使用默认值 %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
