package di

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/handler/api"
	"NewsAlpha/internal/repository"
	"NewsAlpha/internal/services/ml"
	"NewsAlpha/internal/services/prices"
	"NewsAlpha/internal/services/pricing"
	"NewsAlpha/internal/services/ratelimit"
	"NewsAlpha/internal/usecase"
	"NewsAlpha/pkg/cache"
	pkgch "NewsAlpha/pkg/clickhouse"
	"NewsAlpha/pkg/config"
	xhttp "NewsAlpha/pkg/http"
	pkgkafka "NewsAlpha/pkg/kafka"
	applogger "NewsAlpha/pkg/logger"
	"NewsAlpha/pkg/metrics"
	"NewsAlpha/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideGormDB opens the relational database and runs migrations.
func ProvideGormDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		dialector = postgres.Open(cfg.Database.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// ProvideClickHouse connects to the bar archive and ensures its schema.
func ProvideClickHouse(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
	)
	if err != nil {
		return nil, err
	}
	if err := client.InitSchema(context.Background(), repository.PriceBarSchema); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// ProvideCache returns Redis when enabled, otherwise an in-process cache.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
}

// ProvidePublisher builds the labeled-signal publisher, or nil when Kafka
// is disabled; labeling then simply skips publishing.
func ProvidePublisher(cfg *config.Config) (domrepo.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, err
	}
	return repository.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideMetrics builds the Prometheus recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvidePriceFeed builds the rate-limited remote price client.
func ProvidePriceFeed(cfg *config.Config, l *applogger.Logger) domrepo.PriceFeed {
	return prices.NewClient(prices.ClientConfig{
		BaseURL:      cfg.Prices.BaseURL,
		APIKey:       cfg.Prices.APIKey,
		Timeout:      cfg.Prices.Timeout,
		RateCapacity: cfg.Prices.RateCapacity,
		RatePerSec:   cfg.Prices.RatePerSec,
	}, ratelimit.New(), l)
}

// ProvidePriceProvider assembles the cached adjusted-series provider.
func ProvidePriceProvider(
	cfg *config.Config,
	store domrepo.PriceStore,
	feed domrepo.PriceFeed,
	c cache.Service,
	l *applogger.Logger,
) domrepo.PriceProvider {
	return prices.NewProvider(store, feed, pricing.NewEngine(l), c, prices.ProviderConfig{
		CacheTTL:     cfg.Prices.CacheTTL,
		HistoryYears: cfg.Prices.HistoryYears,
	}, l)
}

// ProvideOnlineModel loads the persisted weight vector.
func ProvideOnlineModel(cfg *config.Config, l *applogger.Logger) (*ml.OnlineModel, error) {
	return ml.NewOnlineModel(cfg.Research.WeightsPath, cfg.Research.OnlineRate, l)
}

// ProvidePriceStore builds the ClickHouse bar archive.
func ProvidePriceStore(client *pkgch.Client) domrepo.PriceStore {
	return repository.NewPriceStore(client)
}

// ProvideLabeler wires the labeling batch job.
func ProvideLabeler(
	cfg *config.Config,
	signals domrepo.SignalRepository,
	provider domrepo.PriceProvider,
	pub domrepo.SignalPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Labeler {
	return usecase.NewLabeler(signals, provider, pub, m, cfg.Research.Benchmark, l)
}

// ProvideHandler assembles the HTTP handler.
func ProvideHandler(
	predictor *usecase.Predictor,
	features *usecase.FeatureStore,
	backtester *usecase.Backtester,
	labeler *usecase.Labeler,
	trainer *usecase.Trainer,
	l *applogger.Logger,
) xhttp.Handler {
	return api.NewResearchHandler(predictor, features, backtester, labeler, trainer, l)
}

// ProvideApp assembles the application lifecycle.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	labeler *usecase.Labeler,
	trainer *usecase.Trainer,
	chClient *pkgch.Client,
	pub domrepo.SignalPublisher,
) *server.App {
	return server.New(cfg, l, handler, labeler, trainer, chClient, pub)
}
