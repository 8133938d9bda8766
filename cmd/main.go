package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-user-account/internal/handlers"
	"github.com/sbilibin2017/gw-user-account/internal/jwt"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/media"
	"github.com/sbilibin2017/gw-user-account/internal/passwords"
	"github.com/sbilibin2017/gw-user-account/internal/repositories"
	"github.com/sbilibin2017/gw-user-account/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config is the full process configuration.
type config struct {
	AppHost     string
	AppPort     string
	LogLevel    string
	LogEncoding string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisEnabled      bool
	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisExp          time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	S3Region       string
	S3Endpoint     string
	S3Bucket       string
	S3PublicURL    string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	S3Prefix       string

	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessExp     time.Duration
	JWTRefreshExp    time.Duration

	CookieSecure bool
	CookieDomain string

	UploadDir      string
	UploadMaxBytes int64

	BcryptCost int
}

// @title gw-user-account API
// @version 1.0.0
// @description Microservice for user registration, sessions and profiles
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application, database, Redis, Kafka, S3, JWT, cookie and upload configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getBool := func(key, defaultValue string) (bool, error) {
		v, err := strconv.ParseBool(getEnv(key, defaultValue))
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		v, err := getInt(key, defaultValue)
		return time.Duration(v) * time.Second, err
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.LogEncoding = getEnv("APP_LOG_ENCODING", "json")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}

	// Redis config
	if cfg.RedisEnabled, err = getBool("REDIS_ENABLED", "true"); err != nil {
		return
	}
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return
	}
	if cfg.RedisExp, err = getSeconds("REDIS_EXP_SECOND", "60"); err != nil {
		return
	}

	// Kafka config; no brokers disables events
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "user-account-events")

	// S3 config
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3Bucket = getEnv("S3_BUCKET", "media")
	cfg.S3PublicURL = getEnv("S3_PUBLIC_URL", "http://localhost:9000/media")
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", "")
	cfg.S3Prefix = getEnv("S3_PREFIX", "users")
	if cfg.S3UsePathStyle, err = getBool("S3_PATH_STYLE", "false"); err != nil {
		return
	}

	// JWT config
	cfg.JWTAccessSecret = getEnv("JWT_ACCESS_SECRET", "my_super_secret_key")
	cfg.JWTRefreshSecret = getEnv("JWT_REFRESH_SECRET", "my_super_refresh_secret_key")
	if cfg.JWTAccessExp, err = getSeconds("JWT_ACCESS_EXP_SECOND", "900"); err != nil {
		return
	}
	if cfg.JWTRefreshExp, err = getSeconds("JWT_REFRESH_EXP_SECOND", "864000"); err != nil {
		return
	}

	// Cookie config
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", "true"); err != nil {
		return
	}
	cfg.CookieDomain = getEnv("COOKIE_DOMAIN", "")

	// Upload config
	cfg.UploadDir = getEnv("UPLOAD_DIR", "")
	var maxBytes int
	if maxBytes, err = getInt("UPLOAD_MAX_BYTES", "10485760"); err != nil {
		return
	}
	cfg.UploadMaxBytes = int64(maxBytes)

	if cfg.BcryptCost, err = getInt("BCRYPT_COST", "10"); err != nil {
		return
	}

	return
}

// run initializes the logger, database, Redis, Kafka, S3 and the HTTP server,
// and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogEncoding); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infof("Connecting to PostgreSQL: %s:%d/%s", cfg.PGHost, cfg.PGPort, cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	if err := repositories.RunMigrations(ctx, db.DB); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// Connect to Redis
	var cache services.UserCache
	if cfg.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		defer rdb.Close()
		cache = repositories.NewUserCacheRepository(rdb, cfg.RedisExp)
	} else {
		logger.Log.Info("Redis disabled, user cache is off")
	}

	// Kafka event writer
	var events services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		defer writer.Close()
		events = writer
		logger.Log.Infof("Publishing account events to %s", cfg.KafkaTopic)
	} else {
		logger.Log.Info("Kafka disabled, account events are not published")
	}

	// Object storage
	s3Client, err := media.NewS3Client(ctx, media.S3Config{
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		return fmt.Errorf("s3 client error: %w", err)
	}
	mediaManager := media.NewManager(media.NewS3Store(s3Client, cfg.S3Bucket, cfg.S3PublicURL), cfg.S3Prefix)

	// Initialize JWT service
	tokens := jwt.New(
		jwt.WithAccessSecret(cfg.JWTAccessSecret),
		jwt.WithRefreshSecret(cfg.JWTRefreshSecret),
		jwt.WithAccessExpiration(cfg.JWTAccessExp),
		jwt.WithRefreshExpiration(cfg.JWTRefreshExp),
	)
	hasher := passwords.New(cfg.BcryptCost)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db, hasher)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, hasher, tokens, mediaManager, events)
	profileService := services.NewProfileService(userReadRepo, userWriteRepo, mediaManager, cache, events)

	// Setup router
	r := handlers.NewRouter(handlers.RouterConfig{
		Auth:     authService,
		Profile:  profileService,
		Tokener:  tokens,
		Resolver: profileService,
		Cookies: handlers.CookieOptions{
			Secure:        cfg.CookieSecure,
			Domain:        cfg.CookieDomain,
			AccessMaxAge:  cfg.JWTAccessExp,
			RefreshMaxAge: cfg.JWTRefreshExp,
		},
		Uploads: handlers.UploadOptions{
			Dir:      cfg.UploadDir,
			MaxBytes: cfg.UploadMaxBytes,
		},
		SwaggerURL: fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
