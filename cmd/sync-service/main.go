package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/swapcycle/swapcycle-api/internal/accrual"
	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/lifecycle"
	"github.com/swapcycle/swapcycle-api/internal/notify"
	"github.com/swapcycle/swapcycle-api/internal/remote"
	"github.com/swapcycle/swapcycle-api/internal/repo"
	"github.com/swapcycle/swapcycle-api/internal/services/chat"
	"github.com/swapcycle/swapcycle-api/internal/services/history"
	"github.com/swapcycle/swapcycle-api/internal/services/item"
	"github.com/swapcycle/swapcycle-api/internal/services/media"
	"github.com/swapcycle/swapcycle-api/internal/services/offer"
	"github.com/swapcycle/swapcycle-api/internal/services/syncadmin"
	"github.com/swapcycle/swapcycle-api/internal/services/user"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

const (
	expirySweepInterval  = time.Minute
	journalFlushInterval = 30 * time.Second
)

func main() {
	cfg := config.LoadConfig()

	db, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Fatalf("❌ Error opening local cache: %v", err)
	}
	defer db.Close()

	if err := cache.EnsureSchema(db); err != nil {
		log.Fatalf("❌ Error preparing local cache schema: %v", err)
	}
	store := cache.New(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remoteStore, err := remote.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Error connecting to remote store: %v", err)
	}
	defer remoteStore.Close()

	set := syncer.NewSet(store, remoteStore)

	manager := notify.NewManager()
	defer manager.Shutdown()

	accruer := accrual.New(store, set, nil)
	engine := lifecycle.New(store, set, remoteStore, accruer, manager)

	itemRepo := repo.NewItemRepo(store, set)
	offerRepo := repo.NewOfferRepo(store, set, engine)
	chatRepo := repo.NewChatRepo(store, set, manager)
	historyRepo := repo.NewHistoryRepo(store, accruer)
	userRepo := repo.NewUserRepo(store, set)

	app := fiber.New(fiber.Config{
		AppName:      "SwapCycle Sync API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	mediaService, err := media.NewMediaService(cfg)
	if err != nil {
		log.Fatalf("❌ Error initializing media service: %v", err)
	}

	item.NewItemService(cfg, itemRepo).SetupRoutes(app)
	offer.NewOfferService(cfg, offerRepo).SetupRoutes(app)
	chat.NewChatService(cfg, chatRepo).SetupRoutes(app)
	history.NewHistoryService(cfg, historyRepo).SetupRoutes(app)
	user.NewUserService(cfg, userRepo).SetupRoutes(app)
	mediaService.SetupRoutes(app)
	syncadmin.NewSyncAdminService(cfg, store, set).SetupRoutes(app)

	// WebSocket handshakes run on a plain net/http listener next to the
	// fasthttp API.
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", manager.Handler(jwtService))
	go func() {
		log.Printf("✅ WebSocket listener on port %s", cfg.WSPort)
		if err := http.ListenAndServe(":"+cfg.WSPort, wsMux); err != nil {
			log.Printf("❌ WebSocket listener stopped: %v", err)
		}
	}()

	go runExpirySweep(ctx, engine)
	go runJournalFlush(ctx, set, store)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("⚠️ Shutting down")
		cancel()
		_ = app.Shutdown()
	}()

	log.Printf("✅ SwapCycle Sync API started on port %s (node %s)", cfg.Port, cfg.NodeID)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}

// runExpirySweep periodically expires offers whose deadline has passed.
func runExpirySweep(ctx context.Context, engine *lifecycle.Engine) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := engine.SweepExpired(ctx)
			if err != nil {
				log.Printf("⚠️ Expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Expired %d offers", n)
			}
		}
	}
}

// runJournalFlush periodically replays writes that could not reach the
// remote store.
func runJournalFlush(ctx context.Context, set *syncer.Set, store *cache.Store) {
	ticker := time.NewTicker(journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := store.PendingCount(ctx)
			if err != nil || pending == 0 {
				continue
			}
			flushed, err := set.FlushAll(ctx)
			if err != nil {
				log.Printf("⚠️ Journal flush failed after %d writes: %v", flushed, err)
				continue
			}
			if flushed > 0 {
				log.Printf("Flushed %d pending writes", flushed)
			}
		}
	}
}

// errorHandler renders uncaught errors as JSON.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
