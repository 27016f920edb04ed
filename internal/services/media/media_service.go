package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

// MediaService issues signed Cloudinary upload parameters and removes
// abandoned assets. Clients upload directly to Cloudinary, the API never
// proxies image bytes.
type MediaService struct {
	cfg        *config.Config
	cld        *cloudinary.Cloudinary
	jwtService *utils.JWTService
}

// NewMediaService creates a MediaService.
func NewMediaService(cfg *config.Config) (*MediaService, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary: %w", err)
	}
	return &MediaService{
		cfg:        cfg,
		cld:        cld,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}, nil
}

// GenerateSignature builds the Cloudinary request signature.
func (s *MediaService) GenerateSignature(params map[string]string) string {
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	signatureString += s.cfg.CloudinaryConfig.APISecret

	h := sha1.New()
	h.Write([]byte(signatureString))

	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams handles GET /api/media/upload/params.
func (s *MediaService) GenerateUploadParams(c fiber.Ctx) error {
	itemID := c.Query("item_id")
	if itemID == "" {
		itemID = uuid.New().String()
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := map[string]string{
		"timestamp":     timestamp,
		"upload_preset": s.cfg.CloudinaryConfig.UploadPreset,
	}

	signature := s.GenerateSignature(params)

	return c.JSON(fiber.Map{
		"timestamp":     timestamp,
		"signature":     signature,
		"api_key":       s.cfg.CloudinaryConfig.APIKey,
		"cloud_name":    s.cfg.CloudinaryConfig.CloudName,
		"upload_preset": s.cfg.CloudinaryConfig.UploadPreset,
		"item_id":       itemID,
	})
}

// DeleteAsset handles DELETE /api/media/:publicId.
func (s *MediaService) DeleteAsset(c fiber.Ctx) error {
	publicID := c.Params("publicId")
	if publicID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Asset public id is required"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		log.Printf("Error deleting cloudinary asset %s: %v", publicID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete asset"})
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Unexpected cloudinary response", "result": resp.Result})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  resp.Result,
	})
}
