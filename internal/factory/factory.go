package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"account-service/internal/audit"
	"account-service/internal/bucketing"
	"account-service/internal/client"
	"account-service/internal/config"
	"account-service/internal/encryption"
	"account-service/internal/handler"
	"account-service/internal/hashing"
	redisrepo "account-service/internal/repository/redis"
	"account-service/internal/repository/scylla"
	"account-service/internal/search"
	"account-service/internal/service"
	"account-service/internal/token"
	"account-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies.
type Factory struct {
	config *config.Config

	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	hasher            *hashing.Hasher
	encryptionManager *encryption.Manager
	bucketingManager  *bucketing.Manager
	tokenManager      *token.Manager

	userRepository scylla.UserRepository
	identityCache  *redisrepo.IdentityCache
	auditRecorder  *audit.Recorder
	userIndex      *search.UserIndex
	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
}

// NewFactory loads configuration and initializes every dependency. Analytics
// sinks are optional outside production; the credential store and cache are
// not.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{config: cfg}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}
	if err := factory.initializeManagers(); err != nil {
		return nil, fmt.Errorf("failed to initialize managers: %w", err)
	}

	util.Info("factory initialized",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("kms_enabled", cfg.KMS.Enabled))

	return factory, nil
}

func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	if redisClient, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = redisClient
	}

	if scyllaClient, err := scylla.NewScyllaClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = scyllaClient
		if err := f.scyllaClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("scylla health check: %w", err))
		}
	}

	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		util.Warn("Kafka producer initialization failed, proceeding without it", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
	}

	if esClient, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
		util.Warn("Elasticsearch initialization failed, user search disabled", util.ErrorField(err))
	} else {
		f.esClient = esClient
	}

	if chClient, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
		util.Warn("ClickHouse initialization failed, login analytics disabled", util.ErrorField(err))
	} else {
		f.clickhouseClient = chClient
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

func (f *Factory) initializeManagers() error {
	f.hasher = hashing.NewHasher(f.config)
	f.bucketingManager = bucketing.NewManager(f.config)
	f.tokenManager = token.NewManager(f.config.Auth.TokenSecret, f.config.Auth.TokenTTL)

	var kmsClient *kms.Client
	if f.config.KMS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(f.config.KMS.Region))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		kmsClient = kms.NewFromConfig(awsCfg)
	}
	f.encryptionManager = encryption.NewManager(f.config, kmsClient)

	return nil
}

func (f *Factory) UserRepository() scylla.UserRepository {
	if f.userRepository == nil {
		f.userRepository = scylla.NewScyllaUserRepository(f.scyllaClient, f.bucketingManager)
	}
	return f.userRepository
}

func (f *Factory) IdentityCache() *redisrepo.IdentityCache {
	if f.identityCache == nil {
		f.identityCache = redisrepo.NewIdentityCache(f.redisClient, f.config.Cache.UserTTL)
	}
	return f.identityCache
}

func (f *Factory) AuditRecorder() *audit.Recorder {
	if f.auditRecorder == nil && (f.clickhouseClient != nil || f.kafkaProducer != nil) {
		f.auditRecorder = audit.NewRecorder(f.clickhouseClient, f.kafkaProducer, f.config.Kafka.LoginTopic)
	}
	return f.auditRecorder
}

func (f *Factory) UserIndex() *search.UserIndex {
	if f.userIndex == nil && f.esClient != nil {
		f.userIndex = search.NewUserIndex(f.esClient, f.config.Elasticsearch.UserIndex)
	}
	return f.userIndex
}

func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.UserRepository(),
			f.IdentityCache(),
			handler.ContextIdentity{},
			f.hasher,
			f.encryptionManager,
			f.tokenManager,
			f.AuditRecorder(),
			f.UserIndex(),
			util.Get(),
		)
	}
	return f.serviceFactory
}

// HealthCheck reports per-dependency health.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.scyllaClient != nil {
		if err := f.scyllaClient.HealthCheck(ctx); err != nil {
			healthErrors["scylla"] = err
		}
	} else {
		healthErrors["scylla"] = fmt.Errorf("scylla client not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	}

	return healthErrors
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		util.Info("shutting down factory")

		if f.clickhouseClient != nil {
			f.clickhouseClient.Close()
		}
		if f.esClient != nil {
			f.esClient.Close()
		}
		if f.kafkaProducer != nil {
			f.kafkaProducer.Close()
		}
		if f.scyllaClient != nil {
			f.scyllaClient.Close()
		}
		if f.redisClient != nil {
			f.redisClient.Close()
		}

		util.Sync()
	})
	return nil
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TokenManager() *token.Manager {
	return f.tokenManager
}
