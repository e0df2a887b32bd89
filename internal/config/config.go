package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Charset  string `mapstructure:"charset"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RefreshConfig 集群统计刷新配置
type RefreshConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`     // 刷新周期间隔
	HTTPTimeout time.Duration `mapstructure:"http_timeout"` // 单次 REST 请求超时
}

// Load 加载配置（纯环境变量模式）
func Load() *Config {
	// 设置默认值
	setDefaults()

	// 先加载 .env 到系统环境变量
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，使用系统环境变量: %v", err)
	}

	// 读取环境变量
	viper.AutomaticEnv()

	// 绑定服务器环境变量
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.mode", "SERVER_MODE")

	// 绑定数据库环境变量
	_ = viper.BindEnv("database.driver", "DB_DRIVER")
	_ = viper.BindEnv("database.dsn", "DB_DSN")
	_ = viper.BindEnv("database.host", "DB_HOST")
	_ = viper.BindEnv("database.port", "DB_PORT")
	_ = viper.BindEnv("database.username", "DB_USERNAME")
	_ = viper.BindEnv("database.password", "DB_PASSWORD")
	_ = viper.BindEnv("database.database", "DB_DATABASE")
	_ = viper.BindEnv("database.charset", "DB_CHARSET")

	// 绑定日志环境变量
	_ = viper.BindEnv("log.level", "LOG_LEVEL")

	// 绑定刷新环境变量
	_ = viper.BindEnv("refresh.enabled", "REFRESH_ENABLED")
	_ = viper.BindEnv("refresh.interval", "REFRESH_INTERVAL")
	_ = viper.BindEnv("refresh.http_timeout", "REFRESH_HTTP_TIMEOUT")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("配置解析失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置值
func setDefaults() {
	// 服务器默认配置
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// 数据库默认配置
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./data/cephpolaris.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "cephpolaris")
	viper.SetDefault("database.charset", "utf8mb4")

	// 日志默认配置
	viper.SetDefault("log.level", "info")

	// 刷新默认配置
	viper.SetDefault("refresh.enabled", true)
	viper.SetDefault("refresh.interval", "1m")
	viper.SetDefault("refresh.http_timeout", "30s")
}
