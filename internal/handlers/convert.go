package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"img2ascii/internal/asciiart"
	"img2ascii/internal/cache"
	"img2ascii/internal/domain"
	"img2ascii/internal/pipeline"
	u "img2ascii/internal/utils"
)

// ConvertResponse is the JSON body of a successful conversion.
type ConvertResponse struct {
	ASCII string `json:"ascii"`
	HTML  string `json:"html,omitempty"`
}

// ConvertService bundles configuration and dependencies for image conversion.
type ConvertService struct {
	Config *u.Config
	Cache  *cache.RenderingCache
}

// NewConvertService creates a new ConvertService instance. rc may be nil.
func NewConvertService(cfg u.Config, rc *cache.RenderingCache) *ConvertService {
	return &ConvertService{
		Config: &cfg,
		Cache:  rc,
	}
}

// HandleConvert converts the uploaded image or serves a cached rendering.
func (svc *ConvertService) HandleConvert(c *fiber.Ctx) error {
	requestID := c.GetRespHeader(fiber.HeaderXRequestID)

	data, filename, err := readUpload(c, *svc.Config)
	if err != nil {
		return err
	}

	params, err := extractParams(c, *svc.Config)
	if err != nil {
		return err
	}

	u.Info("Processing upload", "file", filename, "bytes", len(data), "columns", params.Columns,
		"contrast", params.Contrast, "request_id", requestID)

	cacheEnabled := svc.Cache != nil && svc.Config.Cache.Enabled
	key := ""
	if cacheEnabled {
		key = cache.Key(data, params)
		cached, ok, err := svc.Cache.Get(c.Context(), key)
		if err != nil {
			u.Warn("Redis read failed", "error", err, "request_id", requestID)
		}
		if ok {
			u.Info("Rendering cache hit", "key", key, "request_id", requestID)
			c.Set("X-Cache", "HIT")
			return c.JSON(ConvertResponse{ASCII: cached.Text, HTML: cached.HTML})
		}
		c.Set("X-Cache", "MISS")
	}

	rendering, err := pipeline.FromBytes(data, params)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrConversion) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if cacheEnabled {
		if err := svc.Cache.Set(c.Context(), key, rendering); err != nil {
			u.Warn("Redis write failed", "error", err, "request_id", requestID)
		}
	}

	u.Info("Conversion successful", "characters", len(rendering.Text), "rows", rendering.Rows, "request_id", requestID)
	return c.JSON(ConvertResponse{ASCII: rendering.Text, HTML: rendering.HTML})
}

// readUpload returns the bytes of the "image" form file.
func readUpload(c *fiber.Ctx, cfg u.Config) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "No image uploaded")
	}
	if fh.Filename == "" {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "No file selected")
	}
	if fh.Size == 0 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Uploaded image is empty")
	}
	if fh.Size > int64(cfg.Limits.MaxUploadBytes) {
		return nil, "", fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("Image exceeds %d bytes", cfg.Limits.MaxUploadBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusInternalServerError, "Cannot read upload: "+err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusInternalServerError, "Cannot read upload: "+err.Error())
	}
	return data, fh.Filename, nil
}

// extractParams validates the optional form fields on top of the configured defaults.
func extractParams(c *fiber.Ctx, cfg u.Config) (asciiart.Params, error) {
	p := cfg.ConvertParams()

	if s := c.FormValue("columns"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > cfg.Limits.MaxColumns {
			return p, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid columns: must be an integer between 1 and %d", cfg.Limits.MaxColumns))
		}
		p.Columns = n
	}

	if s := c.FormValue("contrast"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return p, fiber.NewError(fiber.StatusBadRequest, "Invalid contrast: must be a positive number")
		}
		p.Contrast = f
	}

	if s := c.FormValue("monochrome"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return p, fiber.NewError(fiber.StatusBadRequest, "Invalid monochrome: must be true or false")
		}
		p.Monochrome = b
	}

	return p, nil
}
