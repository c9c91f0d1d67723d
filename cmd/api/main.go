package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/mwansakal/sokoni-backend/internal/modules/account"
	"github.com/mwansakal/sokoni-backend/internal/modules/audit"
	"github.com/mwansakal/sokoni-backend/internal/modules/auth"
	"github.com/mwansakal/sokoni-backend/internal/modules/ledger"
	"github.com/mwansakal/sokoni-backend/internal/modules/registry"
	"github.com/mwansakal/sokoni-backend/internal/modules/storefront"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Phase 1: Identity ───────────────────────────────────
	accountRepo := account.NewPostgresRepository(db)
	accountService := account.NewService(accountRepo)
	account.NewHandler(accountService).RegisterRoutes(router)

	authService := auth.NewService(accountRepo, jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)
	authMiddleware := auth.Middleware(jwtSecret)

	// ── Phase 2: Audit Trail ────────────────────────────────
	memoryEvents := audit.NewMemorySink()
	events := audit.MultiSink{memoryEvents, audit.NewPostgresSink(db)}
	audit.NewHandler(memoryEvents).RegisterRoutes(router)

	// ── Phase 3: Value-Transfer Ledger ──────────────────────
	var bank ledger.Ledger
	if os.Getenv("LEDGER_GATEWAY_URL") != "" {
		bank = ledger.NewGatewayLedger(
			os.Getenv("LEDGER_API_KEY"),
			os.Getenv("LEDGER_API_SECRET"),
			os.Getenv("LEDGER_GATEWAY_URL"),
			os.Getenv("LEDGER_ENV"),
		)
	} else {
		memoryBank := ledger.NewMemoryLedger()
		ledger.NewHandler(memoryBank).RegisterRoutes(router)
		bank = memoryBank
	}

	// ── Phase 4: Registry & Storefronts ─────────────────────
	admin := mustUUID("PLATFORM_ADMIN_ID")
	feeCollector := mustUUID("FEE_COLLECTOR_ID")
	feeBps, err := strconv.ParseInt(os.Getenv("PLATFORM_FEE_BPS"), 10, 64)
	if err != nil {
		log.Fatal("PLATFORM_FEE_BPS must be an integer in basis points")
	}

	registryService, err := registry.NewService(admin, feeCollector, feeBps, bank, events)
	if err != nil {
		log.Fatal(err)
	}
	registry.NewHandler(registryService, authMiddleware).RegisterRoutes(router)
	storefront.NewHandler(registryService, authMiddleware).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Sokoni API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}

func mustUUID(env string) uuid.UUID {
	id, err := uuid.Parse(os.Getenv(env))
	if err != nil {
		log.Fatalf("%s must be a UUID: %v", env, err)
	}
	return id
}
