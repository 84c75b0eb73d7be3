package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	config "github.com/delloop-lab/taskorilla-sub000/internal/configs"
	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	"github.com/delloop-lab/taskorilla-sub000/internal/events"
	"github.com/delloop-lab/taskorilla-sub000/internal/filter"
	"github.com/delloop-lab/taskorilla-sub000/internal/gateways"
	httpapi "github.com/delloop-lab/taskorilla-sub000/internal/http"
	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
	"github.com/delloop-lab/taskorilla-sub000/internal/services"
	"github.com/delloop-lab/taskorilla-sub000/internal/settings"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the marketplace HTTP API, the notification worker, and the payment sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		db := config.New(cfg.DatabaseDSN)

		redisClient := config.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()

		taskRepo := repository.NewTaskRepository(db)
		bidRepo := repository.NewBidRepository(db)
		progressRepo := repository.NewProgressRepository(db)
		reviewRepo := repository.NewReviewRepository(db)
		userRepo := repository.NewUserRepository(db)

		platformSettings := settings.New(db)
		seedFeePercent(platformSettings, cfg.PlatformFeePercent)

		serviceFee, err := decimal.NewFromString(cfg.ServiceFee)
		if err != nil {
			log.Fatalf("invalid SERVICE_FEE value %q", cfg.ServiceFee)
		}

		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		notifier := notify.NewAsynqNotifier(redisOpt, cfg.NotifyQueue)
		defer notifier.Close()

		throttle := notify.NewThrottle(time.Duration(cfg.ThrottleMinutes) * time.Minute)
		contactFilter := filter.New()
		publisher := events.NewPublisher(redisClient)

		paymentGateway := &gateways.SimulatedPaymentGateway{BaseURL: cfg.CheckoutBaseURL}
		payoutGateway := gateways.NewSimulatedPayoutGateway()

		registry := services.NewBidRegistry(db, taskRepo, bidRepo, progressRepo, userRepo, contactFilter, notifier, publisher)
		fulfillment := services.NewFulfillmentTracker(taskRepo, progressRepo, contactFilter, notifier, throttle)
		payments := services.NewPaymentOrchestrator(taskRepo, bidRepo, paymentGateway, serviceFee)
		payouts := services.NewPayoutEngine(taskRepo, userRepo, progressRepo, platformSettings, payoutGateway, notifier)
		reviews := services.NewReviewGate(taskRepo, reviewRepo, contactFilter)
		lifecycle := services.NewTaskLifecycleController(taskRepo, userRepo, registry, payments, payouts, notifier)

		deliveryServer := notify.NewDeliveryServer(redisOpt, cfg.NotifyQueue, cfg.NotifyConcurrency)
		go func() {
			if err := deliveryServer.Run(notify.NewDeliveryMux(notify.LogNotifier{})); err != nil {
				log.Printf("notification worker stopped: %v", err)
			}
		}()

		sweep := cron.New()
		if _, err := sweep.AddFunc(cfg.ReconcileSweepSpec, func() {
			payments.SweepPending(context.Background())
		}); err != nil {
			log.Fatalf("invalid RECONCILE_SWEEP_SPEC: %v", err)
		}
		sweep.Start()

		e := echo.New()
		handler := httpapi.NewHandler(lifecycle, registry, fulfillment, payments, reviews)
		httpapi.Register(e, handler, cfg.RateLimit)

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(ctx)
		sweep.Stop()
		deliveryServer.Shutdown()

		log.Println("server shut down gracefully")
		return nil
	},
}

// seedFeePercent writes the configured fee once so operators can change
// it at runtime through the settings table.
func seedFeePercent(store *settings.PlatformSettings, value string) {
	ctx := context.Background()
	if _, ok := store.Get(ctx, constants.SettingPlatformFeePercent); ok {
		return
	}
	if err := store.Set(ctx, constants.SettingPlatformFeePercent, value); err != nil {
		log.Printf("failed to seed %s: %v", constants.SettingPlatformFeePercent, err)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
