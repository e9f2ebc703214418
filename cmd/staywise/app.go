package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	bookingapp "staywise/internal/app/handlers/booking"
	propertyapp "staywise/internal/app/handlers/properties"
	userapp "staywise/internal/app/handlers/users"
	"staywise/internal/app/middleware"
	appoutbox "staywise/internal/app/outbox"
	"staywise/internal/app/queries"
	authsvc "staywise/internal/app/services/auth"
	"staywise/internal/app/uow"
	domainuser "staywise/internal/domain/user"
	"staywise/internal/infra/broker/kafka"
	rediscache "staywise/internal/infra/cache/redis"
	"staywise/internal/infra/config"
	mongostore "staywise/internal/infra/db/mongo"
	"staywise/internal/infra/db/postgres"
	ginserver "staywise/internal/infra/http/gin"
	"staywise/internal/infra/obs"
	infraoutbox "staywise/internal/infra/outbox"
	"staywise/internal/infra/security"
	"staywise/internal/infra/seed"
	"staywise/internal/infra/storage/memory"
	"staywise/internal/infra/storage/s3"
)

const devJWTSecret = "staywise-dev-secret"

// outboxStore is both ends of an outbox: handlers append, the worker relays.
type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Store
	Wake() <-chan struct{}
}

// store is the persistence selected by STORE_DRIVER.
type store struct {
	factory     uow.UoWFactory
	users       domainuser.Repository
	outbox      outboxStore
	idempotency middleware.IdempotencyStore
	ready       obs.ReadyCheck
	close       func(ctx context.Context) error
}

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	worker   *infraoutbox.Worker
	factory  uow.UoWFactory
	hasher   security.BcryptHasher
	logger   *slog.Logger
	closers  []func(ctx context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{logger: logger, hasher: security.BcryptHasher{Cost: cfg.BcryptCost}}
	checks := map[string]obs.ReadyCheck{}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.factory = st.factory
	app.closers = append(app.closers, st.close)
	if st.ready != nil {
		checks["store"] = st.ready
	}

	idempotency := st.idempotency
	var catalogCache propertyapp.CatalogCache
	if cfg.RedisURL != "" {
		client, err := rediscache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		idempotency = rediscache.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		catalogCache = rediscache.NewCatalogCache(client, cfg.CatalogCacheTTL)
		logger.Info("redis enabled", "catalog_cache_ttl", cfg.CatalogCacheTTL)
	}

	var images propertyapp.ImageStore
	if cfg.ImageStorageEnabled() {
		uploader, err := s3.NewClient(s3.Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			UseSSL:         cfg.S3UseSSL,
		}, logger)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		images = uploader
		checks["images"] = uploader.Ping
	}

	producer, err := newProducer(cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	if closer, ok := producer.(*kafka.Producer); ok {
		app.closers = append(app.closers, func(context.Context) error { return closer.Close() })
	}
	app.worker = &infraoutbox.Worker{
		Store:       st.outbox,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      "staywise-api",
		Backoff:     cfg.RetryBackoff,
		Wake:        st.outbox.Wake(),
		Logger:      logger,
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	issuer, err := security.NewJWTIssuer(secret, cfg.TokenTTL)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	authService := &authsvc.Service{
		Users:     st.users,
		Passwords: app.hasher,
		Tokens:    issuer,
		Logger:    logger,
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.RequestBookingCommand, *dto.BookingView](commandBus, bookingapp.RequestBookingCommand{}.Key(),
		&bookingapp.RequestBookingHandler{UoWFactory: st.factory, Outbox: st.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[bookingapp.UpdateStatusCommand, *dto.BookingView](commandBus, bookingapp.UpdateStatusCommand{}.Key(),
		&bookingapp.UpdateStatusHandler{UoWFactory: st.factory, Outbox: st.outbox, Encoder: encoder})
	commands.RegisterHandler[propertyapp.UpdatePropertyCommand, *dto.PropertyView](commandBus, propertyapp.UpdatePropertyCommand{}.Key(),
		&propertyapp.UpdatePropertyHandler{UoWFactory: st.factory, Cache: catalogCache, Logger: logger})
	commands.RegisterHandler[propertyapp.AttachImageCommand, *dto.PropertyView](commandBus, propertyapp.AttachImageCommand{}.Key(),
		&propertyapp.AttachImageHandler{UoWFactory: st.factory, Images: images, Cache: catalogCache, Logger: logger})
	commands.RegisterHandler[userapp.UpdateUserCommand, *dto.UserProfile](commandBus, userapp.UpdateUserCommand{}.Key(),
		&userapp.UpdateUserHandler{UoWFactory: st.factory})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[propertyapp.SearchCatalogQuery, *dto.PropertyCatalog](queryBus, propertyapp.SearchCatalogQuery{}.Key(),
		&propertyapp.SearchCatalogHandler{UoWFactory: st.factory, Cache: catalogCache, Logger: logger})
	queries.RegisterHandler[propertyapp.GetPropertyQuery, *dto.PropertyView](queryBus, propertyapp.GetPropertyQuery{}.Key(),
		&propertyapp.GetPropertyHandler{UoWFactory: st.factory})
	queries.RegisterHandler[propertyapp.ListPropertiesQuery, *dto.PropertyList](queryBus, propertyapp.ListPropertiesQuery{}.Key(),
		&propertyapp.ListPropertiesHandler{UoWFactory: st.factory})
	queries.RegisterHandler[bookingapp.ListMyBookingsQuery, *dto.BookingList](queryBus, bookingapp.ListMyBookingsQuery{}.Key(),
		&bookingapp.ListMyBookingsHandler{UoWFactory: st.factory})
	queries.RegisterHandler[bookingapp.ListAllBookingsQuery, *dto.BookingList](queryBus, bookingapp.ListAllBookingsQuery{}.Key(),
		&bookingapp.ListAllBookingsHandler{UoWFactory: st.factory})
	queries.RegisterHandler[userapp.ListUsersQuery, *dto.UserList](queryBus, userapp.ListUsersQuery{}.Key(),
		&userapp.ListUsersHandler{UoWFactory: st.factory})

	validator := middleware.NewStructValidator()
	authorizer := middleware.RoleAuthorizer{}
	// Outbox flush wraps the transaction so relaying starts after commit.
	commandsWithMiddleware := middleware.ChainCommands(commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Authorization(authorizer),
		middleware.Idempotency(idempotency, nil),
		middleware.OutboxFlush(st.outbox, logger),
		middleware.Transaction(st.factory, nil),
	)
	queriesWithMiddleware := middleware.ChainQueries(queryBus,
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(authorizer),
	)

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Property:       ginserver.PropertyHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
		Users:          ginserver.UsersHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Tokens: authService, Logger: logger}.Handle,
	}
	app.health = obs.HealthHandlers{Checks: checks, Timeout: 2 * time.Second}
	return app, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := infraoutbox.NewMongoStore(ctx, client.DB)
		if err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		factory := mongostore.NewFactory(client.DB)
		logger.Info("using mongo store", "database", cfg.MongoDB)
		return &store{
			factory:     factory,
			users:       factory.UsersRepo,
			outbox:      box,
			idempotency: idem,
			ready:       client.Ping,
			close:       client.Close,
		}, nil
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		factory := postgres.NewFactory(db)
		logger.Info("using postgres store")
		return &store{
			factory:     factory,
			users:       factory.UsersRepo,
			outbox:      postgres.NewOutboxStore(db),
			idempotency: postgres.NewIdempotencyStore(db, cfg.IdempotencyTTL),
			ready:       postgres.Ping(db),
			close:       closeGorm(db),
		}, nil
	default:
		factory := memory.NewFactory()
		logger.Warn("using in-memory store; data is lost on restart")
		return &store{
			factory:     factory,
			users:       factory.Users,
			outbox:      memory.NewOutbox(),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			close:       func(context.Context) error { return nil },
		}, nil
	}
}

func closeGorm(db *gorm.DB) func(context.Context) error {
	return func(context.Context) error { return postgres.Close(db) }
}

func newProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, booking events are logged only")
		return infraoutbox.LogProducer{Logger: logger}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, "staywise-api")
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	return producer, nil
}

// seed applies the seed file when one is configured.
func (a *application) seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	seeder := seed.Seeder{UoWFactory: a.factory, Passwords: a.hasher, Logger: a.logger}
	res, err := seeder.Apply(ctx, f)
	if err != nil {
		return err
	}
	if res.Skipped {
		a.logger.Info("seed skipped, store already has users", "path", path)
		return nil
	}
	a.logger.Info("seed applied", "path", path, "users", res.Users, "properties", res.Properties, "bookings", res.Bookings)
	return nil
}

// close releases resources in reverse order of acquisition. It is safe to
// call more than once.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.Warn("shutdown cleanup failed", "error", err)
	}
}
