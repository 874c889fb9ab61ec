package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chattyapp/chatty/config"
	"github.com/chattyapp/chatty/internal/bus"
	"github.com/chattyapp/chatty/internal/handlers"
	"github.com/chattyapp/chatty/internal/mq"
	"github.com/chattyapp/chatty/internal/repository"
	"github.com/chattyapp/chatty/internal/routers"
	"github.com/chattyapp/chatty/internal/service"
	"github.com/chattyapp/chatty/internal/storage"
	"github.com/chattyapp/chatty/internal/ws"
	"github.com/chattyapp/chatty/middleware/jwt"
	logger "github.com/chattyapp/chatty/middleware/log"
	"github.com/chattyapp/chatty/utils/snowflake"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Close()

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	db, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		zlog.Fatal("init postgres", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	markerRepo := repository.NewReadMarkerRepository(db)

	idGen, err := snowflake.NewGenerator(cfg.Snowflake.WorkerID)
	if err != nil {
		zlog.Fatal("init snowflake generator", zap.Error(err))
	}

	broker := bus.NewBroker(groupRepo, zlog, cfg.Bus.SubscriberBuffer)

	// Optional cross-instance bridge.
	if cfg.Redis.Host != "" {
		redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
		if err != nil {
			zlog.Warn("redis unavailable, running with local-only event dispatch", zap.Error(err))
		} else {
			broker.WithRedis(redisClient)
		}
	}

	// Optional Kafka export of bus events.
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			zlog.Warn("kafka unavailable, event export disabled", zap.Error(err))
		} else {
			defer producer.Close()
			broker.WithProducer(producer)
		}
	}

	go broker.Run()
	defer broker.Stop()

	tokens := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	authService := service.NewAuthService(userRepo, tokens)
	userService := service.NewUserService(userRepo, groupRepo)
	groupService := service.NewGroupService(groupRepo, messageRepo, markerRepo, broker)
	messageService := service.NewMessageService(messageRepo, groupRepo, idGen, broker)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, groupService)
	groupHandler := handlers.NewGroupHandler(groupService)
	messageHandler := handlers.NewMessageHandler(messageService)
	wsServer := ws.NewServer(broker, groupRepo, zlog)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	routers.SetupRoutes(r, authService, authHandler, userHandler, groupHandler, messageHandler, wsServer)

	zlog.Info("starting server", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}
