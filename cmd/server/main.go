package main

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/foodbridge/foodshare/internal/config"
    "github.com/foodbridge/foodshare/internal/database"
    "github.com/foodbridge/foodshare/internal/handler"
    "github.com/foodbridge/foodshare/internal/queue"
    "github.com/foodbridge/foodshare/internal/repository"
    "github.com/foodbridge/foodshare/internal/router"
    "github.com/foodbridge/foodshare/internal/search"
    "github.com/foodbridge/foodshare/internal/service"
)

func main() {
    // .env is a local development convenience; in real deployments the
    // variables come from the environment and the file is absent.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    idx, err := search.New(cfg.SearchURL, cfg.SearchIndex)
    if err != nil {
        log.Fatalf("search: %v", err)
    }
    setupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := idx.Setup(setupCtx); err != nil {
        // The store keeps serving without the index; drift is repaired
        // on the next successful resync.
        log.Printf("search: setup failed, continuing degraded: %v", err)
    }

    listingRepo := repository.NewListingRepo(db)
    reservationRepo := repository.NewReservationRepo(db)
    lookupRepo := repository.NewLookupRepo(db)

    listingSvc := service.NewListingService(listingRepo, idx)
    reservationSvc := service.NewReservationService(reservationRepo, listingRepo, queue.PublishReservationCreated)

    // Reconcile the index with the store before taking traffic.
    if failed, err := listingSvc.ResyncIndex(setupCtx); err != nil {
        log.Printf("search: resync skipped: %v", err)
    } else if failed > 0 {
        log.Printf("search: resync finished with %d documents failed", failed)
    }

    go func() {
        if err := queue.StartReservationConsumer(); err != nil {
            log.Printf("queue: consumer stopped: %v", err)
        }
    }()

    rdb := config.NewRedisClient()
    if rdb != nil {
        defer rdb.Close()
    }

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Deps{
        DB:           db,
        JWTSecret:    cfg.JWTSecret,
        Redis:        rdb,
        CacheCfg:     config.LoadCacheConfig(),
        RateLimitCfg: config.LoadRateLimitConfig(),
        Listings:     handler.NewListingHandler(listingSvc, reservationSvc),
        Search:       handler.NewSearchHandler(listingSvc),
        Reservations: handler.NewReservationHandler(reservationSvc),
        Lookup:       handler.NewLookupHandler(lookupRepo),
    })

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
