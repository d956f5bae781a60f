package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost           string        `mapstructure:"server_host"`
	ServerPort           int           `mapstructure:"server_port"`
	ServerDomain         string        `mapstructure:"server_domain"`
	ServerReadTimeout    time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout   time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout    time.Duration `mapstructure:"server_idle_timeout"`
	AppAllowedOrigins    string        `mapstructure:"app_allowed_origins"`
	MaxConcurrency       int64         `mapstructure:"max_concurrency"`
	MaxUploadConcurrency int64         `mapstructure:"max_upload_concurrency"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBDSN             string `mapstructure:"db_dsn"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBSSLMode         string `mapstructure:"db_ssl_mode"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`
	DBAutoMigrate     bool   `mapstructure:"db_auto_migrate"`

	// 认证配置（托管认证服务）
	AuthJWTSecret     string `mapstructure:"auth_jwt_secret"`
	AuthSessionCookie string `mapstructure:"auth_session_cookie"`

	// AI 配置
	AIProvider string        `mapstructure:"ai_provider"`
	AIAPIKey   string        `mapstructure:"ai_api_key"`
	AIModel    string        `mapstructure:"ai_model"`
	AIBaseURL  string        `mapstructure:"ai_base_url"`
	AITimeout  time.Duration `mapstructure:"ai_timeout"`

	// 对象存储配置
	StorageType          string `mapstructure:"storage_type"`
	StoragePublicBaseURL string `mapstructure:"storage_public_base_url"`
	StorageLocalPath     string `mapstructure:"storage_local_path"`
	StorageMinioEndpoint string `mapstructure:"storage_minio_endpoint"`
	StorageMinioAccess   string `mapstructure:"storage_minio_access_key"`
	StorageMinioSecret   string `mapstructure:"storage_minio_secret_key"`
	StorageMinioBucket   string `mapstructure:"storage_minio_bucket"`
	StorageMinioUseSSL   bool   `mapstructure:"storage_minio_use_ssl"`
	StorageGCSBucket     string `mapstructure:"storage_gcs_bucket"`
	StorageWebDAVURL     string `mapstructure:"storage_webdav_url"`
	StorageWebDAVUser    string `mapstructure:"storage_webdav_username"`
	StorageWebDAVPass    string `mapstructure:"storage_webdav_password"`
	StorageWebDAVRoot    string `mapstructure:"storage_webdav_root"`

	// 缓存提供者配置
	CacheType           string        `mapstructure:"cache_type"`
	CacheRedisAddr      string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword  string        `mapstructure:"cache_redis_password"`
	CacheRedisDB        int           `mapstructure:"cache_redis_db"`
	ChatContextCacheTTL time.Duration `mapstructure:"chat_context_cache_ttl"`
	DashboardCacheTTL   time.Duration `mapstructure:"dashboard_cache_ttl"`

	// 限流配置
	RateLimitAIRPS         float64       `mapstructure:"rate_limit_ai_rps"`
	RateLimitAIBurst       int           `mapstructure:"rate_limit_ai_burst"`
	RateLimitAIGlobalRPS   float64       `mapstructure:"rate_limit_ai_global_rps"`
	RateLimitAIGlobalBurst int           `mapstructure:"rate_limit_ai_global_burst"`
	RateLimitApiRPS        float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst      int           `mapstructure:"rate_limit_api_burst"`
	RateLimitExpireTime    time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadAvatarMaxMB  int `mapstructure:"upload_avatar_max_mb"`
	UploadGalleryMaxMB int `mapstructure:"upload_gallery_max_mb"`
	UploadResumeMaxMB  int `mapstructure:"upload_resume_max_mb"`
	AvatarMaxDimension int `mapstructure:"avatar_max_dimension"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	if strings.HasSuffix(configFile, ".env") {
		viper.SetConfigType("env")
	}

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "60s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("app_allowed_origins", "http://localhost:3000")
	viper.SetDefault("max_concurrency", 100)
	viper.SetDefault("max_upload_concurrency", 8)

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_dsn", "")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "postgres")
	viper.SetDefault("db_ssl_mode", "require")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 20)
	viper.SetDefault("db_max_idle_conns", 5)
	viper.SetDefault("db_conn_max_lifetime", 1800)
	viper.SetDefault("db_auto_migrate", false)

	// 认证配置默认值
	viper.SetDefault("auth_jwt_secret", "")
	viper.SetDefault("auth_session_cookie", "sb-access-token")

	// AI 配置默认值
	viper.SetDefault("ai_provider", "gemini")
	viper.SetDefault("ai_api_key", "")
	viper.SetDefault("ai_model", "gemini-1.5-flash")
	viper.SetDefault("ai_base_url", "")
	viper.SetDefault("ai_timeout", "60s")

	// 对象存储配置默认值
	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_public_base_url", "")
	viper.SetDefault("storage_local_path", "./data/uploads")
	viper.SetDefault("storage_minio_use_ssl", true)

	// 缓存提供者配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("chat_context_cache_ttl", "0s")
	viper.SetDefault("dashboard_cache_ttl", "60s")

	// 限流配置默认值
	viper.SetDefault("rate_limit_ai_rps", 0.5)
	viper.SetDefault("rate_limit_ai_burst", 10)
	viper.SetDefault("rate_limit_ai_global_rps", 5.0)
	viper.SetDefault("rate_limit_ai_global_burst", 20)
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_expire_time", "10m")

	// 上传配置默认值
	viper.SetDefault("upload_avatar_max_mb", 5)
	viper.SetDefault("upload_gallery_max_mb", 10)
	viper.SetDefault("upload_resume_max_mb", 10)
	viper.SetDefault("avatar_max_dimension", 512)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成本地存储的公开链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// AllowedOrigins 解析 CORS 允许的来源列表
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AppAllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{c.BaseURL()}
	}
	return origins
}

// MaxBytes 将 MB 配置转换为字节数
func MaxBytes(mb int, fallback int) int64 {
	if mb <= 0 {
		mb = fallback
	}
	return int64(mb) << 20
}
