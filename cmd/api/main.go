package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/config"
	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/cache"
	"github.com/saintvisionai/platform-api/internal/infra/database"
	"github.com/saintvisionai/platform-api/internal/infra/database/memory"
	"github.com/saintvisionai/platform-api/internal/infra/http/handlers"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
	"github.com/saintvisionai/platform-api/internal/infra/integration/supabase"
	"github.com/saintvisionai/platform-api/internal/infra/mail"
	"github.com/saintvisionai/platform-api/internal/infra/queue"
	"github.com/saintvisionai/platform-api/internal/infra/worker"
	"github.com/saintvisionai/platform-api/internal/logger"
	"github.com/saintvisionai/platform-api/internal/usecase"
)

type repositories struct {
	subscriptions entity.SubscriptionRepository
	workspaces    entity.WorkspaceRepository
	contacts      entity.ContactRepository
	opportunities entity.OpportunityRepository
	appointments  entity.AppointmentRepository
	crmEvents     entity.CRMEventRepository
	webhookEvents entity.WebhookEventStore
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		subscriptions: database.NewSubscriptionRepository(db),
		workspaces:    database.NewWorkspaceRepository(db),
		contacts:      database.NewContactRepository(db),
		opportunities: database.NewOpportunityRepository(db),
		appointments:  database.NewAppointmentRepository(db),
		crmEvents:     database.NewCRMEventRepository(db),
		webhookEvents: database.NewWebhookEventRepository(db),
	}
}

func memoryRepositories() repositories {
	s := memory.NewStore()
	return repositories{
		subscriptions: s.Subscriptions(),
		workspaces:    s.Workspaces(),
		contacts:      s.Contacts(),
		opportunities: s.Opportunities(),
		appointments:  s.Appointments(),
		crmEvents:     s.CRMEvents(),
		webhookEvents: s.WebhookEvents(),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plans, err := config.LoadPlanCatalog(cfg.PlanCatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load plan catalog")
	}
	log.Info().Str("version", plans.Version()).Msg("plan catalog loaded")

	// 1. Storage
	var (
		db    *sql.DB
		repos repositories
	)
	if cfg.DatabaseURL != "" {
		db, err = database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer db.Close()
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				log.Fatal().Err(err).Msg("failed to apply schema")
			}
		}
		repos = postgresRepositories(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		repos = memoryRepositories()
	}

	var dedupCache handlers.Pinger
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		dedup, err := cache.NewWebhookDedup(client, cfg.DedupTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid dedup configuration")
		}
		repos.webhookEvents = dedup
		dedupCache = dedup
	}

	// 2. Gateways
	if cfg.StripeWebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, every billing webhook will be rejected")
	}
	stripeClient := stripe.NewClient(cfg.StripeAPIKey)
	profiles := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	crm := ghl.NewClient(cfg.GHLAPIKey, cfg.GHLAPIBase, cfg.GHLRateLimit)

	var email usecase.EmailService
	if cfg.MailHost != "" {
		email = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
	}

	// 3. UseCases
	provisionUC := usecase.NewProvisionCRMUseCase(
		repos.workspaces, profiles, crm, plans, email, cfg.AppURL+"/dashboard",
		cfg.ProvisionDelay, cfg.ProvisionAttempts, log,
	)
	billingUC := usecase.NewProcessBillingEventUseCase(
		repos.subscriptions, repos.webhookEvents, profiles, stripeClient, plans, provisionUC, log,
	)
	syncUC := usecase.NewSyncCRMEventUseCase(
		repos.crmEvents, repos.workspaces, repos.contacts, repos.opportunities, repos.appointments, crm, log,
	)
	actionsUC := usecase.NewCRMActionsUseCase(
		repos.workspaces, repos.contacts, repos.opportunities, repos.appointments, crm, log,
	)
	checkoutUC := usecase.NewCreateCheckoutUseCase(stripeClient, cfg.AppURL, log)
	retryUC := usecase.NewRetryProvisioningUseCase(repos.subscriptions, plans, nil, provisionUC, log)

	// 4. Queue and workers
	var broker handlers.BrokerStatus
	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer rabbitMQ.Close()
		broker = rabbitMQ
		retryUC.Queue = queue.NewProducer(rabbitMQ.Ch)

		consumer := queue.NewWorker(rabbitMQ.Ch, retryUC, log)
		go func() {
			if err := consumer.Start(ctx, queue.QueueName); err != nil {
				log.Error().Err(err).Msg("provisioning worker stopped")
			}
		}()
	} else {
		log.Warn().Msg("AMQP_URL not set, provisioning retries run in-process")
		retryUC.Queue = queue.NewInlineDispatcher(retryUC, log)
	}

	go worker.NewRetentionWorker(repos.webhookEvents, cfg.DedupTTL, log).Start(ctx)

	// 5. Handlers
	router := newRouter(Handlers{
		Health:       handlers.NewHealthHandler(db, broker, dedupCache),
		Billing:      handlers.NewBillingWebhookHandler(billingUC, cfg.StripeWebhookSecret, log),
		CRMWebhook:   handlers.NewCRMWebhookHandler(syncUC, cfg.GHLWebhookSecret, log),
		CRMActions:   handlers.NewCRMActionsHandler(actionsUC, log),
		Checkout:     handlers.NewCheckoutHandler(checkoutUC, log),
		Subscription: handlers.NewSubscriptionHandler(repos.subscriptions, log),
		Provisioning: handlers.NewProvisioningHandler(retryUC, log),
	}, cfg.CORSOrigins, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("platform API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
