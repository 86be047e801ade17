package container

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/rate-limiter-go/internal/audit"
	auditstore "github.com/serroba/rate-limiter-go/internal/audit/store"
	"github.com/serroba/rate-limiter-go/internal/handlers"
	"github.com/serroba/rate-limiter-go/internal/health"
	"github.com/serroba/rate-limiter-go/internal/messaging"
	"github.com/serroba/rate-limiter-go/internal/middleware"
	"github.com/serroba/rate-limiter-go/internal/ratelimit"
	"github.com/serroba/rate-limiter-go/internal/store"
	"go.uber.org/zap"
)

// Options configures both the server and the audit consumer.
type Options struct {
	Port          int    `default:"8888"            help:"Port to listen on"                                               short:"p"`
	RedisAddr     string `default:"localhost:6379"  help:"Redis server address"                                            short:"r"`
	PostgresDSN   string `help:"Postgres DSN for audit event storage (events are logged when empty)"`
	Limit         int64  `default:"10"              help:"Max admitted requests per client per window"                     short:"l"`
	WindowSeconds int    `default:"60"              help:"Quota window length in seconds"                                  short:"w"`
	GuardLimit    int64  `default:"300"             help:"Per-caller ceiling per minute on the API itself (0 disables)"`
	LogFormat     string `default:"console"         help:"Log format: console or json"`
}

// Window returns the configured quota window as a duration.
func (o *Options) Window() time.Duration {
	return time.Duration(o.WindowSeconds) * time.Second
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// RateLimitPackage provides the counter store and the limiter engine.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.CounterStore, error) {
		return store.NewRedisCounterStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.FixedWindowLimiter, error) {
		options := do.MustInvoke[*Options](i)
		counters := do.MustInvoke[ratelimit.CounterStore](i)

		return ratelimit.NewFixedWindowLimiter(counters, options.Limit, options.Window()), nil
	})
}

// PublisherGroupPackage provides the audit event publisher over Redis
// streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// AuditStorePackage provides the audit event sink: Postgres when a DSN is
// configured, a logging noop otherwise.
func AuditStorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (audit.Store, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.PostgresDSN == "" {
			return auditstore.NewNoop(logger), nil
		}

		pool, err := pgxpool.New(context.Background(), options.PostgresDSN)
		if err != nil {
			return nil, err
		}

		return store.NewPostgresAuditStore(pool), nil
	})
}

// ConsumerGroupPackage provides the audit consumers over Redis streams.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)
		sink := do.MustInvoke[audit.Store](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "quota-audit",
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, audit.TopicWindowStarted, sink.SaveWindowStarted, logger))
		group.Add(messaging.NewConsumer(subscriber, audit.TopicQuotaExceeded, sink.SaveQuotaExceeded, logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the fully wired API.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		client := do.MustInvoke[*redis.Client](i)
		counters := do.MustInvoke[ratelimit.CounterStore](i)
		limiter := do.MustInvoke[*ratelimit.FixedWindowLimiter](i)
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)

		api := humachi.New(router, huma.DefaultConfig("Quota Service", "1.0.0"))

		newRequestID, err := nanoid.Standard(21)
		if err != nil {
			return nil, err
		}

		middlewares := []func(huma.Context, func(huma.Context)){
			middleware.RequestMeta(newRequestID),
		}

		if options.GuardLimit > 0 {
			guard := ratelimit.NewFixedWindowLimiter(counters, options.GuardLimit, time.Minute)
			middlewares = append(middlewares, middleware.Guard(api, guard, logger))
		}

		api.UseMiddleware(middlewares...)

		quotaHandler := handlers.NewQuotaHandler(
			limiter,
			messaging.NewPublishFunc[audit.WindowStartedEvent](publishers.Publisher(), audit.TopicWindowStarted),
			messaging.NewPublishFunc[audit.QuotaExceededEvent](publishers.Publisher(), audit.TopicQuotaExceeded),
			logger,
		)
		handlers.RegisterRoutes(api, quotaHandler)
		health.RegisterRoutes(api, health.NewHandler(health.NewRedisChecker(client)))

		return api, nil
	})
}
