// 生成摘要：店面单体服务入口。
// 组装目录、购物车、订单、支付、物流、通知六个模块，共享一个 MySQL 与 Kafka；
// 事件经 Outbox 中继，低库存巡检与 Outbox 处理器作为后台任务随服务启动。
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/wyfcoding/cardstore/internal/cart/application"
	cartdomain "github.com/wyfcoding/cardstore/internal/cart/domain"
	cartmysql "github.com/wyfcoding/cardstore/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/cardstore/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/cardstore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/cardstore/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/cardstore/internal/catalog/interfaces/http"
	notificationapp "github.com/wyfcoding/cardstore/internal/notification/application"
	notificationdomain "github.com/wyfcoding/cardstore/internal/notification/domain"
	notificationmysql "github.com/wyfcoding/cardstore/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/cardstore/internal/notification/infrastructure/sender"
	notificationconsumer "github.com/wyfcoding/cardstore/internal/notification/interfaces/consumer"
	orderapp "github.com/wyfcoding/cardstore/internal/order/application"
	orderdomain "github.com/wyfcoding/cardstore/internal/order/domain"
	ordermysql "github.com/wyfcoding/cardstore/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/cardstore/internal/order/interfaces/http"
	paymentdomain "github.com/wyfcoding/cardstore/internal/payment/domain"
	"github.com/wyfcoding/cardstore/internal/payment/infrastructure/mercadopago"
	paymentmysql "github.com/wyfcoding/cardstore/internal/payment/infrastructure/persistence/mysql"
	paymenthttp "github.com/wyfcoding/cardstore/internal/payment/interfaces/http"
	shippingapp "github.com/wyfcoding/cardstore/internal/shipping/application"
	"github.com/wyfcoding/cardstore/internal/shipping/infrastructure/frete"
	shippinghttp "github.com/wyfcoding/cardstore/internal/shipping/interfaces/http"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/limiter"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/storefront/config.toml", "config file path")

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	Store         struct {
		LowStockThreshold int    `mapstructure:"low_stock_threshold" toml:"low_stock_threshold"`
		AlertRecipient    string `mapstructure:"alert_recipient" toml:"alert_recipient"`
		WatcherInterval   string `mapstructure:"watcher_interval" toml:"watcher_interval"`
	} `mapstructure:"store" toml:"store"`
	Payment struct {
		BaseURL       string `mapstructure:"base_url" toml:"base_url"`
		AccessToken   string `mapstructure:"access_token" toml:"access_token"`
		WebhookSecret string `mapstructure:"webhook_secret" toml:"webhook_secret"`
	} `mapstructure:"payment" toml:"payment"`
	Shipping struct {
		BaseURL   string `mapstructure:"base_url" toml:"base_url"`
		Token     string `mapstructure:"token" toml:"token"`
		OriginCEP string `mapstructure:"origin_cep" toml:"origin_cep"`
	} `mapstructure:"shipping" toml:"shipping"`
	SMTP struct {
		Host     string `mapstructure:"host" toml:"host"`
		Port     string `mapstructure:"port" toml:"port"`
		Username string `mapstructure:"username" toml:"username"`
		Password string `mapstructure:"password" toml:"password"`
		From     string `mapstructure:"from" toml:"from"`
	} `mapstructure:"smtp" toml:"smtp"`
}

func main() {
	flag.Parse()

	// 1. 配置
	var cfg Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	if cfg.Store.LowStockThreshold <= 0 {
		cfg.Store.LowStockThreshold = 5
	}

	// 2. 日志
	logCfg := &logging.Config{Service: cfg.Server.Name, Level: cfg.Log.Level}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. 指标
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. 数据库
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&catalogdomain.Product{},
			&cartdomain.Cart{},
			&cartdomain.CartItem{},
			&cartdomain.Coupon{},
			&orderdomain.Order{},
			&orderdomain.OrderItem{},
			&paymentdomain.Payment{},
			&notificationdomain.Notification{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Redis（限流）
	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()
	rateLimiter := limiter.NewRedisLimiter(redisCache.GetClient(), cfg.RateLimit.Rate, cfg.RateLimit.Burst)

	// 6. Kafka & Outbox
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)
	publisher := outbox.NewPublisher(outboxMgr)

	// 7. 外部网关
	paymentGateway := mercadopago.NewClient(cfg.Payment.BaseURL, cfg.Payment.AccessToken)
	freteClient := frete.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.Token)

	var emailSender notificationdomain.Sender
	if cfg.SMTP.Host != "" {
		emailSender = sender.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		emailSender = sender.NewMockEmailSender()
	}

	// 8. 仓储
	productRepo := catalogmysql.NewProductRepository(db.RawDB())
	cartRepo := cartmysql.NewCartRepository(db.RawDB())
	couponRepo := cartmysql.NewCouponRepository(db.RawDB())
	orderRepo := ordermysql.NewOrderRepository(db.RawDB())
	paymentRepo := paymentmysql.NewPaymentRepository(db.RawDB())
	notificationRepo := notificationmysql.NewNotificationRepository(db.RawDB())

	// 9. 应用服务
	ledger := catalogapp.NewStockLedger(productRepo, publisher, cfg.Store.LowStockThreshold)
	catalogCmd := catalogapp.NewCatalogCommandService(productRepo, ledger, publisher)
	catalogQuery := catalogapp.NewCatalogQueryService(productRepo)

	cartCmd := cartapp.NewCartCommandService(cartRepo, couponRepo)
	cartQuery := cartapp.NewCartQueryService(cartRepo)

	checkoutSvc := orderapp.NewCheckoutService(orderRepo, paymentRepo, cartRepo, couponRepo, ledger, paymentGateway, publisher)
	orderCmd := orderapp.NewOrderCommandService(orderRepo, paymentRepo, cartRepo, ledger, paymentGateway, publisher)
	orderQuery := orderapp.NewOrderQueryService(orderRepo, paymentRepo)

	quoteSvc := shippingapp.NewQuoteService(freteClient, cfg.Shipping.OriginCEP)
	dispatcher := notificationapp.NewDispatcher(notificationRepo, emailSender, cfg.Store.AlertRecipient)

	watcherInterval := 10 * time.Minute
	if cfg.Store.WatcherInterval != "" {
		if d, err := time.ParseDuration(cfg.Store.WatcherInterval); err == nil {
			watcherInterval = d
		}
	}
	watcher := catalogapp.NewStockWatcher(productRepo, publisher, cfg.Store.LowStockThreshold, watcherInterval, logger.Logger)

	// 10. 消费者
	eventHandler := notificationconsumer.NewStoreEventHandler(dispatcher)
	consumers := make([]*kafka.Consumer, 0)
	for _, topic := range eventHandler.Topics() {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "storefront-notification-group"
		}
		consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		consumer.Start(context.Background(), 1, eventHandler.Handle)
		consumers = append(consumers, consumer)
	}

	// 11. 接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.HTTPMetricsMiddleware(metricsImpl), middleware.CORS())

	// 系统路由与回调不限流
	sys := r.Group("/sys")
	sys.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": cfg.Server.Name, "timestamp": time.Now().Unix()})
	})
	sys.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	webhookHandler := paymenthttp.NewWebhookHandler(orderCmd, cfg.Payment.WebhookSecret)
	webhookHandler.RegisterRoutes(r)

	r.Use(middleware.RateLimitWithLimiter(rateLimiter))

	api := r.Group("/api")
	cataloghttp.NewCatalogHandler(catalogCmd, catalogQuery, cfg.Store.LowStockThreshold).RegisterRoutes(api)
	carthttp.NewCartHandler(cartCmd, cartQuery).RegisterRoutes(api)
	orderhttp.NewOrderHandler(checkoutSvc, orderCmd, orderQuery).RegisterRoutes(api)
	shippinghttp.NewShippingHandler(quoteSvc).RegisterRoutes(api)

	// 12. 启动
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

	g.Go(func() error {
		return watcher.Run(ctx)
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
		server := &http.Server{Addr: addr, Handler: r}
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
