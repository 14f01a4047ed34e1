package bootstrap

import (
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded once at startup from a yaml
// file with environment-variable overrides for the addresses that differ
// between compose, CI and production.
type Config struct {
	App struct {
		LogLevel          string `yaml:"logLevel"`
		PlaceOrderRetries int    `yaml:"placeOrderRetries"`
		ReconcileInterval string `yaml:"reconcileInterval"`
		ReconcileBatch    int    `yaml:"reconcileBatch"`
	} `yaml:"app"`
	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var currentConfig atomic.Pointer[Config]

// LoadConfig reads the yaml file named by CONFIG_PATH (default
// configs/config.yaml), applies env overrides and installs the result as the
// current config.
func LoadConfig() (*Config, error) {
	path := getEnv("CONFIG_PATH", "configs/config.yaml")

	cfg := defaultConfig()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Env wins over file for the per-environment endpoints.
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.ServerAddrs = v
	}

	currentConfig.Store(cfg)
	return cfg, nil
}

// GetCurrentConfig returns the installed configuration. LoadConfig must have
// run first; bootstrap.StartService guarantees that for every service.
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	cfg := defaultConfig()
	currentConfig.Store(cfg)
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.LogLevel = "info"
	cfg.App.PlaceOrderRetries = 3
	cfg.App.ReconcileInterval = "30s"
	cfg.App.ReconcileBatch = 100
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/verdant?parseTime=true&charset=utf8mb4"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.Topic = "order-events-topic"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
