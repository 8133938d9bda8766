package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv clears env vars used by parseConfig
func resetEnv(t *testing.T) {
	t.Helper()
	saved := os.Environ()
	os.Clearenv()
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			if k, v, ok := strings.Cut(kv, "="); ok {
				os.Setenv(k, v)
			}
		}
	})
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	assert.Equal(t, "config.env", parseFlags())
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	assert.Equal(t, "myconfig.env", parseFlags())
}

func TestPrintBuildInfo_Output(t *testing.T) {
	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2025-09-26"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	output := buf.String()
	assert.Contains(t, output, "Version: v1.0.0")
	assert.Contains(t, output, "Commit: abcd1234")
	assert.Contains(t, output, "Build: 2025-09-26")
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv(t)

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	// Application
	assert.Equal(t, "localhost", cfg.AppHost)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogEncoding)

	// PostgreSQL
	assert.Equal(t, "localhost", cfg.PGHost)
	assert.Equal(t, 5432, cfg.PGPort)
	assert.Equal(t, "user", cfg.PGUser)
	assert.Equal(t, "password", cfg.PGPassword)
	assert.Equal(t, "database", cfg.PGDB)
	assert.Equal(t, 16, cfg.PGMaxOpenConns)
	assert.Equal(t, 8, cfg.PGMaxIdleConns)

	// Redis
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Empty(t, cfg.RedisPassword)
	assert.Equal(t, 10, cfg.RedisPoolSize)
	assert.Equal(t, 2, cfg.RedisMinIdleConns)
	assert.Equal(t, time.Minute, cfg.RedisExp)

	// Kafka
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "user-account-events", cfg.KafkaTopic)

	// S3
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "media", cfg.S3Bucket)
	assert.Equal(t, "users", cfg.S3Prefix)
	assert.False(t, cfg.S3UsePathStyle)

	// JWT
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExp)
	assert.Equal(t, 10*24*time.Hour, cfg.JWTRefreshExp)
	assert.NotEqual(t, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	// Cookies, uploads, hashing
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestParseConfig_CustomEnv(t *testing.T) {
	resetEnv(t)
	env := map[string]string{
		"APP_HOST":               "127.0.0.1",
		"APP_PORT":               "9090",
		"APP_LOG_LEVEL":          "debug",
		"APP_LOG_ENCODING":       "console",
		"POSTGRES_HOST":          "pg.example.com",
		"POSTGRES_PORT":          "5433",
		"POSTGRES_USER":          "admin",
		"POSTGRES_PASSWORD":      "secret",
		"POSTGRES_DB":            "mydb",
		"REDIS_ENABLED":          "false",
		"REDIS_HOST":             "redis.example.com",
		"REDIS_PORT":             "6380",
		"REDIS_EXP_SECOND":       "120",
		"KAFKA_BROKERS":          "k1:9092, k2:9092,",
		"KAFKA_TOPIC":            "accounts",
		"S3_ENDPOINT":            "http://minio:9000",
		"S3_PATH_STYLE":          "true",
		"JWT_ACCESS_SECRET":      "a",
		"JWT_REFRESH_SECRET":     "r",
		"JWT_ACCESS_EXP_SECOND":  "60",
		"JWT_REFRESH_EXP_SECOND": "3600",
		"COOKIE_SECURE":          "false",
		"COOKIE_DOMAIN":          "example.com",
		"UPLOAD_DIR":             "/tmp/uploads",
		"UPLOAD_MAX_BYTES":       "2048",
		"BCRYPT_COST":            "12",
	}
	for k, v := range env {
		os.Setenv(k, v)
	}

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.AppHost)
	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogEncoding)
	assert.Equal(t, "pg.example.com", cfg.PGHost)
	assert.Equal(t, 5433, cfg.PGPort)
	assert.Equal(t, "admin", cfg.PGUser)
	assert.Equal(t, "secret", cfg.PGPassword)
	assert.Equal(t, "mydb", cfg.PGDB)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, "redis.example.com", cfg.RedisHost)
	assert.Equal(t, 6380, cfg.RedisPort)
	assert.Equal(t, 2*time.Minute, cfg.RedisExp)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "accounts", cfg.KafkaTopic)
	assert.Equal(t, "http://minio:9000", cfg.S3Endpoint)
	assert.True(t, cfg.S3UsePathStyle)
	assert.Equal(t, "a", cfg.JWTAccessSecret)
	assert.Equal(t, "r", cfg.JWTRefreshSecret)
	assert.Equal(t, time.Minute, cfg.JWTAccessExp)
	assert.Equal(t, time.Hour, cfg.JWTRefreshExp)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "example.com", cfg.CookieDomain)
	assert.Equal(t, "/tmp/uploads", cfg.UploadDir)
	assert.Equal(t, int64(2048), cfg.UploadMaxBytes)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestParseConfig_InvalidNumber(t *testing.T) {
	resetEnv(t)
	os.Setenv("POSTGRES_PORT", "not-a-port")

	_, err := parseConfig("nonexistent.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_PORT")
}

func TestParseConfig_EnvFile(t *testing.T) {
	resetEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nKAFKA_BROKERS=broker:9092\n"), 0o600))

	cfg, err := parseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.AppPort)
	assert.Equal(t, []string{"broker:9092"}, cfg.KafkaBrokers)
}

func freePort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	_, port, err := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, err)
	return port
}

// ------------------ Full integration test ------------------
func TestRun_Success(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	// ------------------ Postgres container ------------------
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "user"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: pgReq, Started: true})
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	resetEnv(t)
	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)
	cfg.AppHost = "127.0.0.1"
	cfg.AppPort = freePort(t)
	cfg.LogLevel = "debug"
	cfg.PGHost = pgHost
	cfg.PGPort = pgPort.Int()
	cfg.PGDB = "testdb"
	cfg.RedisEnabled = false
	cfg.S3Endpoint = "http://127.0.0.1:9"
	cfg.S3AccessKey = "test"
	cfg.S3SecretKey = "test"

	// ------------------ Run ------------------
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(testCtx, cfg)
	}()

	metricsURL := fmt.Sprintf("http://%s:%s/metrics", cfg.AppHost, cfg.AppPort)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(metricsURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 8*time.Second, 100*time.Millisecond)

	select {
	case <-time.After(15 * time.Second):
		t.Fatal("test timed out")
	case err := <-errCh:
		require.NoError(t, err, "expected run to stop cleanly")
	}
}
