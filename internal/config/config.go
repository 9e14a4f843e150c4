package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr 返回 HTTP 服务监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	SQL    bool   `mapstructure:"sql"`
}

type DatabaseConfig struct {
	Sources []model.DatabaseEndpoint `mapstructure:"sources"`
	Target  model.DatabaseEndpoint   `mapstructure:"target"`
}

type SyncConfig struct {
	// 定时同步周期，单位秒
	Interval      int           `mapstructure:"interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
	RunOnStart    bool          `mapstructure:"run_on_start"`
	IncludeTables []string      `mapstructure:"include_tables"`
	ExcludeTables []string      `mapstructure:"exclude_tables"`
}

// IntervalDuration 返回定时同步周期
func (s SyncConfig) IntervalDuration() time.Duration {
	return time.Duration(s.Interval) * time.Second
}

// LoadConfig 读取配置文件并应用环境变量覆盖
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 基本配置
	v.SetConfigFile(configPath)
	if filepath.Ext(configPath) == "" {
		v.SetConfigType("yaml")
	}

	// 环境变量配置，例如 APP_SYNC_INTERVAL 覆盖 sync.interval
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyEndpointDefaults(config)

	// 验证配置
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.sql", false)
	v.SetDefault("sync.interval", 1800)
	v.SetDefault("sync.batch_size", 100)
	v.SetDefault("sync.run_timeout", time.Duration(0))
	v.SetDefault("sync.run_on_start", false)
}

// applyEndpointDefaults 补全配置文件中省略的端口、postgres schema 和源库名称
func applyEndpointDefaults(cfg *Config) {
	for i := range cfg.Database.Sources {
		endpointDefaults(&cfg.Database.Sources[i])
		if cfg.Database.Sources[i].Name == "" {
			cfg.Database.Sources[i].Name = fmt.Sprintf("source_%d", i+1)
		}
	}
	endpointDefaults(&cfg.Database.Target)
	if cfg.Database.Target.Name == "" {
		cfg.Database.Target.Name = "target"
	}
}

func endpointDefaults(ep *model.DatabaseEndpoint) {
	if ep.Driver == "" {
		ep.Driver = database.DriverPostgres
	}
	ep.Driver = strings.ToLower(ep.Driver)
	switch ep.Driver {
	case database.DriverMySQL:
		if ep.Port == 0 {
			ep.Port = database.DefaultMySQLPort
		}
	default:
		if ep.Port == 0 {
			ep.Port = database.DefaultPostgresPort
		}
		if ep.Schema == "" {
			ep.Schema = database.DefaultPostgresSchema
		}
		if ep.SSLMode == "" {
			ep.SSLMode = "disable"
		}
	}
}

func validateConfig(cfg *Config) error {
	// 验证必要的配置项
	if len(cfg.Database.Sources) == 0 {
		return fmt.Errorf("at least one source database is required")
	}

	seen := make(map[string]bool)
	for _, src := range cfg.Database.Sources {
		if err := validateEndpoint(src); err != nil {
			return fmt.Errorf("source %s: %w", src.Name, err)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		seen[src.Name] = true
	}

	if err := validateEndpoint(cfg.Database.Target); err != nil {
		return fmt.Errorf("target: %w", err)
	}

	// 验证同步配置
	if cfg.Sync.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be greater than 0")
	}
	if cfg.Sync.Interval <= 0 {
		return fmt.Errorf("sync interval must be greater than 0")
	}
	if cfg.Sync.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must not be negative")
	}

	for _, patterns := range [][]string{cfg.Sync.IncludeTables, cfg.Sync.ExcludeTables} {
		for _, pattern := range patterns {
			if _, err := filepath.Match(pattern, ""); err != nil {
				return fmt.Errorf("invalid table pattern %q: %w", pattern, err)
			}
		}
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	return nil
}

func validateEndpoint(ep model.DatabaseEndpoint) error {
	if _, err := database.DialectFor(ep.Driver); err != nil {
		return err
	}
	if ep.Host == "" {
		return fmt.Errorf("host is required")
	}
	if ep.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if ep.User == "" {
		return fmt.Errorf("user is required")
	}
	return nil
}
