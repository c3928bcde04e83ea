package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	yggdrasil "github.com/goliatone/go-yggdrasil"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Absence of a .env file is fine; the environment still applies.
	_ = godotenv.Load()

	settings := yggdrasil.NewSettingsFromEnv()

	sqldb, err := sql.Open(sqliteshim.ShimName, settings.DatabaseDSN)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()
	if err := yggdrasil.CreateSchema(ctx, db); err != nil {
		return err
	}

	repo := yggdrasil.NewRepositoryManager(db)
	repo.MustValidate()

	signer := yggdrasil.NewSigner(settings.GetSignaturePrivateKey())
	sessions := yggdrasil.NewSessionService(repo, settings.GetTokenPolicy())
	presenter := yggdrasil.NewProfilePresenter(settings.GetTexturesBaseURL(), signer)
	controller := yggdrasil.NewAuthController(sessions, presenter, signer, settings)

	app := fiber.New(fiber.Config{
		AppName: settings.GetImplementationName(),
	})
	yggdrasil.RegisterAuthRoutes(app, controller)

	// Background sweep so stale tokens age out without waiting for their
	// owner's next request.
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go yggdrasil.NewTokenSweeper(repo, sessions, settings.SweepInterval).Run(sweepCtx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		cancelSweep()
		_ = app.Shutdown()
	}()

	log.Printf("%s listening on %s (signing enabled: %v)",
		settings.GetImplementationName(), settings.Listen, signer.Enabled())

	return app.Listen(settings.Listen)
}
