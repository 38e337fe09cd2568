package db

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lablend/models"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.LoanRecord{},
		&models.BorrowRequest{},
		&models.RequestLine{},
	); err != nil {
		return err
	}

	// at most one active loan per serialized unit
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_active_per_unit
	  ON %s (unit_code)
	  WHERE unit_code IS NOT NULL AND status IN ('borrowed', 'overdue');
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// overdue sweep scans this
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_borrowed_due_on
	  ON %s (due_on)
	  WHERE status = 'borrowed';
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// quantity invariant backstop: 0 ≤ in_use ≤ (cap ?? total) ≤ total
	if err := db.Exec(fmt.Sprintf(`
	  DO $$ BEGIN
	    ALTER TABLE %s ADD CONSTRAINT %s_qty_invariant
	      CHECK (in_use_qty >= 0
	        AND in_use_qty <= COALESCE(borrow_cap, total_qty)
	        AND COALESCE(borrow_cap, total_qty) <= total_qty);
	  EXCEPTION WHEN duplicate_object THEN NULL;
	  END $$;
	`, models.ItemTable, models.ItemTable)).Error; err != nil {
		return err
	}

	return nil
}
