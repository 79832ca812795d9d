package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/persistence"
	"github.com/go-redis/redis/v8"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB starts a MySQL container, migrates every model and returns a
// gorm handle. The container is terminated when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("mobile_money_test"),
		tcmysql.WithUsername("test"),
		tcmysql.WithPassword("test"),
	)
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate mysql container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(persistence.Models()...); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// SetupTestRedis starts a Redis container and returns a connected client.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}

	return client
}

func SeedWallet(t *testing.T, db *gorm.DB, id string) *domain.Wallet {
	t.Helper()

	wallet, err := domain.NewWallet(id, "Test Owner", "254712345678", time.Now().UTC())
	if err != nil {
		t.Fatalf("build wallet: %v", err)
	}
	if err := db.Create(persistence.WalletModelFromDomain(wallet)).Error; err != nil {
		t.Fatalf("seed wallet %s: %v", id, err)
	}
	return wallet
}

func SeedPendingIntent(t *testing.T, db *gorm.DB, reference, walletID string, purpose domain.PaymentPurpose, amount int64, createdAt time.Time) *domain.PaymentIntent {
	t.Helper()

	intent, err := domain.NewPaymentIntent("id-"+reference, reference, walletID, purpose, amount, "0712345678", createdAt)
	if err != nil {
		t.Fatalf("build intent: %v", err)
	}
	if err := db.Create(persistence.PaymentIntentModelFromDomain(intent)).Error; err != nil {
		t.Fatalf("seed intent %s: %v", reference, err)
	}
	return intent
}
