// Package container composes the application from configuration.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-account-service/internal/infrastructure/search"
	"github.com/oksasatya/go-account-service/internal/infrastructure/storage"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

// Infra holds the adapters the account service runs on.
type Infra struct {
	Accounts repository.AccountRepository
	Sessions repository.SessionRepository
	Avatars  application.AvatarStore
	Mail     *mailer.Dispatcher
	Indexer  application.Indexer
}

// Container owns every long-lived component and closes them in reverse order.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Infra   Infra
	Service *application.Service

	closers []func()
}

// New builds the service over already constructed infrastructure.
func New(cfg *config.Config, logger *logrus.Logger, in Infra) *Container {
	c := &Container{Config: cfg, Logger: logger, Infra: in}
	tc := transcoder.New(
		transcoder.WithQuality(cfg.AvatarJPEGQuality),
		transcoder.WithMaxPixels(cfg.AvatarMaxPixels),
	)
	deps := application.Deps{
		Accounts:   in.Accounts,
		Sessions:   in.Sessions,
		Hasher:     helpers.NewPasswordHasher(cfg.BcryptCost),
		Tokens:     helpers.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Transcoder: tc,
		Avatars:    in.Avatars,
		Indexer:    in.Indexer,
		Logger:     logger,
		VerifyURL:  cfg.VerifyEmailURL,
		Brand: mailtpl.Brand{
			AppName:        cfg.AppName,
			CompanyName:    cfg.CompanyName,
			CompanyAddress: cfg.CompanyAddress,
			SupportURL:     cfg.SupportURL,
		},
	}
	if in.Mail != nil {
		deps.Mailer = in.Mail
		in.Mail.Start()
		c.OnClose(in.Mail.Close)
	}
	c.Service = application.NewService(deps)
	return c
}

// Build connects to every configured backend and returns the wired container.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	var closers []func()
	fail := func(err error) (*Container, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	pool, err := pginfra.NewPool(ctx, pginfra.OptionsFrom(cfg))
	if err != nil {
		return fail(fmt.Errorf("connect postgres: %w", err))
	}
	closers = append(closers, pool.Close)
	in := Infra{Accounts: pginfra.NewAccountRepository(pool)}

	switch cfg.SessionStore {
	case "memory":
		logger.Warn("sessions kept in memory; they are lost on restart")
		in.Sessions = memory.NewSessionRepository()
	default:
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		closers = append(closers, func() { _ = rdb.Close() })
		in.Sessions = redisstore.NewSessionRepository(rdb, cfg.TokenTTL)
	}

	switch cfg.AvatarBackend {
	case "gcs":
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return fail(fmt.Errorf("init gcs: %w", err))
		}
		closers = append(closers, func() { _ = gcs.Close() })
		in.Avatars = storage.NewGCSStore(
			storage.NewBucketObjects(gcs, cfg.GCSBucket), cfg.GCSBucket, cfg.AvatarPrefix, cfg.AvatarPublicBaseURL, logger)
	default:
		in.Avatars = storage.NewLocalStore(cfg.UploadDir, cfg.AvatarPrefix)
	}

	sender, closeSender, err := newSender(cfg, logger)
	if err != nil {
		return fail(err)
	}
	if closeSender != nil {
		closers = append(closers, closeSender)
	}
	in.Mail = mailer.NewDispatcher(sender, logger,
		mailer.WithQueueSize(cfg.MailQueueSize),
		mailer.WithWorkers(cfg.MailWorkers),
		mailer.WithSendTimeout(15*time.Second),
	)

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(helpers.ESOptions{
			Addrs:    addrs,
			Username: cfg.ElasticsearchUser,
			Password: cfg.ElasticsearchPass,
		})
		if err != nil {
			return fail(fmt.Errorf("init elasticsearch: %w", err))
		}
		in.Indexer = search.NewAccountIndex(es, cfg.ESAccountsIndex)
	}

	c := New(cfg, logger, in)
	// dispatcher must drain before its sender is closed
	c.closers = append(closers, c.closers...)
	return c, nil
}

// newSender picks the mail transport: RabbitMQ when configured, Mailgun
// otherwise, and a logging sender when sending is disabled or unconfigured.
func newSender(cfg *config.Config, logger *logrus.Logger) (mailer.Sender, func(), error) {
	if !cfg.MailSendEnabled {
		return mailer.LogSender{Logger: logger}, nil, nil
	}
	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.RabbitMQDeadLetterQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return mailer.QueueSender{Pub: pub}, pub.Close, nil
	}
	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), nil, nil
	}
	logger.Warn("no mail transport configured; emails are only logged")
	return mailer.LogSender{Logger: logger}, nil, nil
}

func (c *Container) OnClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases components in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
