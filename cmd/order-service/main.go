// cmd/order-service/main.go
package main

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"

	"microcommerce/internal/pkg/bootstrap"
	"microcommerce/internal/pkg/httpclient"
	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/pkg/mq"
	"microcommerce/internal/pkg/redis"
	"microcommerce/internal/service/order/application"
	"microcommerce/internal/service/order/domain/port"
	"microcommerce/internal/service/order/infrastructure"
	"microcommerce/internal/service/order/infrastructure/adapter"
	"microcommerce/internal/service/order/interfaces"
	"microcommerce/internal/zookeeper"
)

const serviceName = "order-service"

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		panic(err)
	}

	// 被 OnShutdown 回收的资源
	var (
		mongoClient *mongo.Client
		redisClient *redis.Client
		publisher   *adapter.KafkaEventPublisher
		consumer    *infrastructure.CacheInvalidationConsumer
		zkCloser    func()
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			ctx := context.Background()

			// MongoDB
			mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.Infra.Mongo.URI))
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to connect to mongodb")
			}
			if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to ping mongodb")
			}
			tracer := otel.Tracer(serviceName)
			orderRepo := infrastructure.NewMongoRepository(
				mongoClient.Database(cfg.Infra.Mongo.Database), cfg.Infra.Mongo.Collection)

			// Redis 缓存是加速层，连不上就降级为无缓存运行
			var cache *adapter.RedisSnapshotCache
			if cfg.Infra.Redis.Addr != "" {
				redisClient, err = redis.NewClient(cfg.Infra.Redis.Addr)
				if err != nil {
					logger.Logger.Warn().Err(err).Msg("redis unavailable, running without snapshot cache")
				} else {
					cache = adapter.NewRedisSnapshotCache(redisClient, cfg.Infra.Redis.CacheTTL)
				}
			}

			// 出站 HTTP 网关
			httpClient := httpclient.NewClient(tracer)
			var productCache adapter.ProductCache
			var userCache adapter.UserCache
			if cache != nil {
				productCache = cache
				userCache = cache
			}
			catalog := adapter.NewCatalogHTTPAdapter(httpClient, cfg.Services.Product.BaseURL,
				cfg.Services.Product.LookupTimeout, cfg.Services.Product.ExistsTimeout, productCache)
			identity := adapter.NewIdentityHTTPAdapter(httpClient, cfg.Services.User.BaseURL,
				cfg.Services.User.ExistsTimeout, userCache)

			// Kafka 出站
			writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers)
			publisher = adapter.NewKafkaEventPublisher(writer, adapter.Topology{
				OrderCreated:       cfg.Infra.Kafka.Topics.OrderCreated,
				OrderStatusUpdated: cfg.Infra.Kafka.Topics.OrderStatusUpdated,
				OrderCancelled:     cfg.Infra.Kafka.Topics.OrderCancelled,
				OrderDeleted:       cfg.Infra.Kafka.Topics.OrderDeleted,
			})

			// 订单锁: 多副本部署用 ZooKeeper，否则用进程内锁
			var locker port.OrderLocker = adapter.NewLocalOrderLocker()
			if cfg.Infra.Zookeeper.Enabled {
				zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
				if err != nil {
					logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
				}
				locker = adapter.NewZookeeperOrderLocker(zkConn)
				zkCloser = zkConn.Close
			}

			appSvc := application.NewOrderApplicationService(orderRepo, catalog, identity, publisher, locker, tracer)
			interfaces.NewOrderHandler(appSvc).RegisterRoutes(appCtx.Mux)

			// Kafka 入站: 上游变更事件打掉本地缓存
			if cache != nil {
				productReader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers,
					cfg.Infra.Kafka.ProductEventsTopic, cfg.Infra.Kafka.ConsumerGroup)
				userReader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers,
					cfg.Infra.Kafka.UserEventsTopic, cfg.Infra.Kafka.ConsumerGroup)
				consumer = infrastructure.NewCacheInvalidationConsumer(productReader, userReader, cache)
				consumer.Start(context.Background())
			}
		},
		OnShutdown: func(ctx context.Context) {
			if consumer != nil {
				consumer.Stop()
			}
			if publisher != nil {
				if err := publisher.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing kafka writer")
				}
			}
			if zkCloser != nil {
				zkCloser()
			}
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing redis client")
				}
			}
			if mongoClient != nil {
				if err := mongoClient.Disconnect(ctx); err != nil {
					logger.Logger.Error().Err(err).Msg("error disconnecting mongodb")
				}
			}
		},
	})
}
