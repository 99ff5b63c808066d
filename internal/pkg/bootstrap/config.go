// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是整个服务的静态配置。
// 进程启动时从 yaml 文件加载一次，之后只读；
// 消息拓扑（事件类型 -> topic）也在这里固定，运行期不允许修改。
type Config struct {
	App struct {
		Name     string `yaml:"name"`
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Infra struct {
		Mongo struct {
			URI        string `yaml:"uri"`
			Database   string `yaml:"database"`
			Collection string `yaml:"collection"`
		} `yaml:"mongo"`

		Kafka struct {
			Brokers []string `yaml:"brokers"`
			// 出站: 每种订单事件一个 topic
			Topics struct {
				OrderCreated       string `yaml:"order_created"`
				OrderStatusUpdated string `yaml:"order_status_updated"`
				OrderCancelled     string `yaml:"order_cancelled"`
				OrderDeleted       string `yaml:"order_deleted"`
			} `yaml:"topics"`
			// 入站: 监听上游的商品/用户变更事件
			ProductEventsTopic string `yaml:"product_events_topic"`
			UserEventsTopic    string `yaml:"user_events_topic"`
			ConsumerGroup      string `yaml:"consumer_group"`
		} `yaml:"kafka"`

		Redis struct {
			Addr     string        `yaml:"addr"`
			CacheTTL time.Duration `yaml:"cache_ttl"`
		} `yaml:"redis"`

		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`

		Zookeeper struct {
			Enabled bool     `yaml:"enabled"`
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`

		Nacos struct {
			Enabled     bool   `yaml:"enabled"`
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`

	Services struct {
		Product struct {
			BaseURL       string        `yaml:"base_url"`
			LookupTimeout time.Duration `yaml:"lookup_timeout"`
			ExistsTimeout time.Duration `yaml:"exists_timeout"`
		} `yaml:"product"`
		User struct {
			BaseURL       string        `yaml:"base_url"`
			ExistsTimeout time.Duration `yaml:"exists_timeout"`
		} `yaml:"user"`
	} `yaml:"services"`
}

var currentConfig atomic.Pointer[Config]

// defaultConfig 填充本地开发用的缺省值，保证没有配置文件也能跑起来。
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "order-service"
	cfg.App.Port = 8083
	cfg.App.LogLevel = "info"

	cfg.Infra.Mongo.URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.Infra.Mongo.Database = "microcommerce"
	cfg.Infra.Mongo.Collection = "orders"

	cfg.Infra.Kafka.Brokers = []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	cfg.Infra.Kafka.Topics.OrderCreated = "order.created"
	cfg.Infra.Kafka.Topics.OrderStatusUpdated = "order.status.updated"
	cfg.Infra.Kafka.Topics.OrderCancelled = "order.cancelled"
	cfg.Infra.Kafka.Topics.OrderDeleted = "order.deleted"
	cfg.Infra.Kafka.ProductEventsTopic = "product.events"
	cfg.Infra.Kafka.UserEventsTopic = "user.events"
	cfg.Infra.Kafka.ConsumerGroup = "order-service"

	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Infra.Redis.CacheTTL = 5 * time.Minute

	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")

	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", "localhost:8848")
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", "DEFAULT_GROUP")

	cfg.Services.Product.BaseURL = getEnv("PRODUCT_SERVICE_URL", "http://localhost:8081")
	cfg.Services.Product.LookupTimeout = 5 * time.Second
	cfg.Services.Product.ExistsTimeout = 3 * time.Second
	cfg.Services.User.BaseURL = getEnv("USER_SERVICE_URL", "http://localhost:8082")
	cfg.Services.User.ExistsTimeout = 3 * time.Second

	return cfg
}

// LoadConfig 读取 CONFIG_PATH 指向的 yaml 文件并覆盖缺省配置。
// 文件不存在时直接使用缺省值，这不是错误。
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	path := getEnv("CONFIG_PATH", "configs/config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			currentConfig.Store(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	currentConfig.Store(cfg)
	return cfg, nil
}

// GetCurrentConfig 返回进程当前的配置快照。
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	cfg := defaultConfig()
	currentConfig.Store(cfg)
	return cfg
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
