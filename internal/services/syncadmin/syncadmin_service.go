package syncadmin

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

// SyncAdminService exposes the synchronization controls: a full
// reconciliation pass, a journal flush, and the pending-write count.
type SyncAdminService struct {
	cfg        *config.Config
	store      *cache.Store
	set        *syncer.Set
	jwtService *utils.JWTService
}

// NewSyncAdminService creates a SyncAdminService.
func NewSyncAdminService(cfg *config.Config, store *cache.Store, set *syncer.Set) *SyncAdminService {
	return &SyncAdminService{
		cfg:        cfg,
		store:      store,
		set:        set,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// FullSync handles POST /api/sync/full.
func (s *SyncAdminService) FullSync(c fiber.Ctx) error {
	ctx, cancel := respond.Context()
	defer cancel()

	reports, err := s.set.SyncAll(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   err.Error(),
			"reports": reports,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reports": reports,
	})
}

// Flush handles POST /api/sync/flush.
func (s *SyncAdminService) Flush(c fiber.Ctx) error {
	ctx, cancel := respond.Context()
	defer cancel()

	flushed, err := s.set.FlushAll(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   err.Error(),
			"flushed": flushed,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"flushed": flushed,
	})
}

// Cleanup handles POST /api/sync/cleanup.
func (s *SyncAdminService) Cleanup(c fiber.Ctx) error {
	ctx, cancel := respond.Context()
	defer cancel()

	removed, err := s.set.CleanupAll(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   err.Error(),
			"removed": removed,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"removed": removed,
	})
}

// Pending handles GET /api/sync/pending.
func (s *SyncAdminService) Pending(c fiber.Ctx) error {
	ctx, cancel := respond.Context()
	defer cancel()

	count, err := s.store.PendingCount(ctx)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"pending": count,
	})
}
