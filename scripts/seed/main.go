package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/domain"
	_ "github.com/go-sql-driver/mysql"
)

func main() {
	cfg := config.Load()

	db, err := sql.Open("mysql", cfg.MySQL.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping MySQL: %v\nDSN: %s:%s@tcp(%s)/%s",
			err, cfg.MySQL.User, "***", cfg.MySQL.Host, cfg.MySQL.Database)
	}

	fmt.Println("Connected to MySQL successfully")

	wallets := []struct {
		id    string
		owner string
		phone string
	}{
		{"WAL00001", "Amina Otieno", "254712345678"},
		{"WAL00002", "Brian Kamau", "254722000111"},
		{"WAL00003", "Cynthia Wanjiru", "254733444555"},
		{"WAL00004", "David Mutua", "254700111222"},
		{"WAL00005", "Esther Njeri", "254711999888"},
	}

	query := `
		INSERT INTO wallets (id, owner_name, phone_number, balance, total_deposited,
		                     status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		    owner_name = VALUES(owner_name),
		    phone_number = VALUES(phone_number),
		    updated_at = VALUES(updated_at)
	`

	now := time.Now().UTC()
	for _, w := range wallets {
		wallet, err := domain.NewWallet(w.id, w.owner, w.phone, now)
		if err != nil {
			log.Fatalf("Failed to build wallet %s: %v", w.id, err)
		}

		_, err = db.Exec(query,
			wallet.ID,
			wallet.OwnerName,
			wallet.PhoneNumber,
			wallet.Balance,
			wallet.TotalDeposited,
			string(wallet.Status),
			wallet.Version,
			wallet.CreatedAt,
			wallet.UpdatedAt,
		)
		if err != nil {
			log.Fatalf("Failed to seed wallet %s: %v", w.id, err)
		}

		fmt.Printf("Seeded wallet: %s (%s, %s)\n", wallet.ID, wallet.OwnerName, wallet.PhoneNumber)
	}

	fmt.Println("\nSeed completed successfully!")
	fmt.Println("You can now test the API with wallet IDs: WAL00001 to WAL00005")
}
