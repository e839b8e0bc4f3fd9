package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/auth"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/cache"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/config"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/database"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/groq"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/handler"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/logger"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/mailer"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/practice"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
)

type application struct {
	Logger  *zap.Logger
	Config  *config.Config
	Handler *handler.Handler
	limiter *ipRateLimiter
}

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	log, err := logger.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	sugar := log.Sugar()
	sugar.Infof("config loaded: %s", cfg)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		sugar.Fatal(err)
	}
	defer closeStore()

	var cacheStore cache.Store
	if cfg.Redis.Addr != "" {
		rs := cache.NewRedisStore(cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
		if err := rs.Ping(ctx); err != nil {
			sugar.Fatalf("redis: %v", err)
		}
		cacheStore = rs
	} else {
		log.Warn("REDIS_ADDR not set, keeping revoked tokens and otp throttles in memory")
		cacheStore = cache.NewMemoryStore()
	}
	defer func() { _ = cacheStore.Close() }()

	var mail mailer.Sender
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		mail = mailer.NewLogMailer(log)
	}

	var coach practice.Coach = practice.NewStaticCoach(practice.DefaultBank())
	if cfg.Groq.APIKey != "" {
		llm := groq.NewClient(cfg.Groq.APIKey, cfg.Groq.Model, cfg.Groq.BaseURL, cfg.Groq.Timeout)
		coach = practice.NewFallbackCoach(llm, coach, log)
	} else {
		log.Warn("GROQ_API_KEY not set, using the built-in question bank")
	}

	app := &application{
		Logger: log,
		Config: cfg,
		Handler: &handler.Handler{
			Logger:            log,
			Repository:        store,
			Cache:             cacheStore,
			Mailer:            mail,
			Coach:             coach,
			TokenMaker:        auth.NewJWTMaker(cfg.JWT.Secret),
			JwtTTL:            cfg.JWT.TTL,
			CookieName:        cfg.JWT.CookieName,
			SecureCookie:      cfg.IsProduction(),
			OTPTTL:            cfg.OTP.TTL,
			OTPResendCooldown: cfg.OTP.ResendCooldown,
			OTPResetWindow:    cfg.OTP.ResetWindow,
		},
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Limiter.Enabled {
		app.limiter = newIPRateLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst)
	}

	if err := app.serve(); err != nil {
		sugar.Fatal(err)
	}
	log.Info("server stopped")
}

// openStore connects the backend named by STORE_DRIVER and returns a func
// that releases it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		db, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, nil, err
		}
		log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))
		return repo, func() { _ = db.Client().Disconnect(context.Background()) }, nil

	case config.DriverPostgres:
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(cfg.DB.DSN, database.MigrateUp); err != nil {
				return nil, nil, err
			}
			log.Info("database migrations applied")
		}
		pool, err := database.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to postgres", zap.Int32("max_conns", cfg.DB.MaxConns))
		return repository.NewRepository(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
