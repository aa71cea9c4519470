package main

import (
	"context"
	"log"
	"time"

	"github.com/Vovarama1992/lingua_tutor/internal/config"
	"github.com/Vovarama1992/lingua_tutor/internal/infra"
	"github.com/Vovarama1992/lingua_tutor/internal/translation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := infra.OpenPostgres(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := translation.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("messages table is ready")
}
