package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RabbitMQConfig RabbitMQ配置
type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// RemoteConfig 远端分享平台的接入配置
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"` // 访问远端列表接口的 Bearer Token
	Timeout time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	SyncCron        string `mapstructure:"sync_cron"`         // 同步任务的 cron 表达式，例如 "0 */6 * * *"
	ExpiryCron      string `mapstructure:"expiry_cron"`       // 过期扫描任务的 cron 表达式，例如 "0 8 * * *"
	ExpiryDaysAhead int    `mapstructure:"expiry_days_ahead"` // 提前多少天通知链接所有者
}

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	// 配置文件名 config.yaml，依次在当前目录、./configs 和生产环境路径查找
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/go-linktrack/")

	// 读取环境变量，例如 GO_LINKTRACK_MYSQL_DSN 对应 mysql.dsn
	viper.SetEnvPrefix("GO_LINKTRACK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 默认值（配置文件和环境变量都没有时生效）
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.output_path", "logs/app.log")
	viper.SetDefault("log.error_path", "logs/error.log")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("remote.timeout", 30*time.Second)
	viper.SetDefault("scheduler.sync_cron", "0 */6 * * *")
	viper.SetDefault("scheduler.expiry_cron", "0 8 * * *")
	viper.SetDefault("scheduler.expiry_days_ahead", 7)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到不是致命错误，可以依赖环境变量或默认值
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			return nil, err
		}
	}

	// 将读取到的配置绑定到结构体
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
