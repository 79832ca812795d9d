package database_test

import (
	"context"
	"testing"

	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/database"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

func TestOpenMySQL_Migrate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("mobile_money"),
		tcmysql.WithUsername("payments"),
		tcmysql.WithPassword("secret"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	db, err := database.OpenMySQL(config.MySQLConfig{
		Host:         host + ":" + port.Port(),
		User:         "payments",
		Password:     "secret",
		Database:     "mobile_money",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	// Migrating an up-to-date schema is a no-op.
	require.NoError(t, database.Migrate(db))

	for _, model := range persistence.Models() {
		assert.True(t, db.Migrator().HasTable(model))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenMySQL_Unreachable(t *testing.T) {
	_, err := database.OpenMySQL(config.MySQLConfig{
		Host:     "127.0.0.1:1",
		User:     "u",
		Password: "p",
		Database: "d",
	})
	assert.Error(t, err)
}

func TestOpenRedis_Unreachable(t *testing.T) {
	_, err := database.OpenRedis(config.RedisConfig{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
