package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.MigrateOnStart {
		migrator, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar migraciones")
		}
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		if err := migrator.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	var idempotency inventory.IdempotencyStore
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		idempotency = cache.NewRedisIdempotencyStore(client, "")
		log.Info().Str("addr", cfg.Redis.Addr).Msg("claves de idempotencia en Redis")
	} else {
		mem := cache.NewMemoryIdempotencyStore(time.Minute)
		defer mem.Close()
		idempotency = mem
		log.Warn().Msg("REDIS_ADDR vacío: claves de idempotencia en memoria (solo una instancia)")
	}

	txRunner := postgres.NewTxRunner(pool, cfg.DB.TxTimeout)
	productRepo := postgres.NewProductRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	serviceProductRepo := postgres.NewServiceProductRepository(pool)

	ledger := inventory.NewStockLedger(postgres.NewStockLedgerRepository(pool), productRepo)
	alerts := inventory.NewAlertEngine(txRunner, postgres.NewInventoryAlertRepository(pool), cfg.Ledger.AlertLocale, log.Zerolog())
	movements := inventory.NewMovementRecorder(txRunner, ledger, alerts, postgres.NewInventoryMovementRepository(pool), log.Zerolog())
	transfers := inventory.NewTransferCoordinator(txRunner, ledger, alerts, postgres.NewInventoryTransferRepository(pool), productRepo, log.Zerolog())
	deductions := inventory.NewServiceDeductionEngine(txRunner, ledger, alerts, serviceProductRepo, idempotency, cfg.Ledger.IdempotencyTTL, log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.DocsEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Inventory Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:          ledger,
		Movements:       movements,
		Transfers:       transfers,
		Deductions:      deductions,
		Alerts:          alerts,
		SupplierUC:      usecase.NewSupplierUseCase(supplierRepo),
		ServiceProducts: usecase.NewServiceProductUseCase(serviceProductRepo, productRepo),
		JWTSecret:       cfg.JWT.Secret,
		JWTIssuer:       cfg.JWT.Issuer,
		Log:             log.Component("http"),
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("apagando servidor")
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
			log.Error().Err(err).Msg("apagado del servidor")
		}
	}()

	addr := cfg.HTTP.Addr()
	log.Info().Str("addr", addr).Msg("servidor escuchando")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("servidor detenido")
	}
	log.Info().Msg("servidor detenido")
}
