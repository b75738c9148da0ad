package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"fotomagic-pro/internal/config"
	pg "fotomagic-pro/internal/infra/db/postgres"
	"fotomagic-pro/internal/infra/logging"
	"fotomagic-pro/internal/usecase"
)

// mintcode issues a credit code directly against the database, for support
// cases where a buyer paid but the webhook flow could not reach them.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	email := flag.String("email", "", "owner contact the code is issued to")
	credits := flag.Int("credits", 10, "credit total for the code")
	pkgName := flag.String("package", "Manual", "package name stamped on the code")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: mintcode -email buyer@example.com [-credits N] [-package Name]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := logging.New(cfg.Log, true)
	ledgerUC := usecase.NewLedgerUseCase(pg.NewCreditCodeRepo(pool), pg.NewTxManager(pool), logger)

	cc, err := ledgerUC.CreateCode(ctx, *email, *credits, *pkgName, nil)
	if err != nil {
		log.Fatalf("create code: %v", err)
	}

	fmt.Printf("code:    %s\n", cc.Code)
	fmt.Printf("email:   %s\n", cc.Email)
	fmt.Printf("credits: %d\n", cc.CreditsTotal)
	fmt.Printf("expires: %s\n", cc.ExpiresAt.Format(time.RFC3339))
}
