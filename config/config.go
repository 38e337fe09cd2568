package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv pulls .env into the process environment when present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}
