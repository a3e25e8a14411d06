package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/spiview/internal/canvas"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

// Default values used when a field is omitted.
const (
	DefaultHistoryDB     = "spiview.db"
	DefaultListen        = "localhost:8090"
	DefaultProgressEvery = 10
)

// ViewerConfig is the startup configuration. The canvas fields share their
// names with the /api/settings payload so one JSON document serves both.
type ViewerConfig struct {
	// Canvas settings
	CanvasMode      *string `json:"canvas_mode,omitempty"` // "auto" or "fixed"
	CanvasHeight    *int    `json:"canvas_height,omitempty"`
	CanvasWidth     *int    `json:"canvas_width,omitempty"`
	Margin          *int    `json:"margin,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"` // "#rrggbb"
	ComponentRadius *int    `json:"component_radius,omitempty"`

	// Pipeline
	ProgressEvery *int  `json:"progress_every,omitempty"`
	SnapshotCache *bool `json:"snapshot_cache,omitempty"`

	// Service
	HistoryDB *string `json:"history_db,omitempty"`
	Listen    *string `json:"listen,omitempty"`
}

func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyViewerConfig returns a config with every field unset.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// DefaultViewerConfig returns a config with every field set to its default.
func DefaultViewerConfig() *ViewerConfig {
	def := canvas.DefaultConfig()
	return &ViewerConfig{
		CanvasMode:      ptrString(string(def.Mode)),
		CanvasHeight:    ptrInt(def.Size.Height),
		CanvasWidth:     ptrInt(def.Size.Width),
		Margin:          ptrInt(def.Margin),
		BackgroundColor: ptrString(def.Background.Hex()),
		ComponentRadius: ptrInt(def.ComponentRadius),
		ProgressEvery:   ptrInt(DefaultProgressEvery),
		SnapshotCache:   ptrBool(true),
		HistoryDB:       ptrString(DefaultHistoryDB),
		Listen:          ptrString(DefaultListen),
	}
}

// LoadViewerConfig loads a config from a JSON file. The file must have a
// .json extension and be at most 1MB. Omitted fields fall back to the Get*
// defaults.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseViewerConfig(data)
}

// ParseViewerConfig decodes and validates a JSON document.
func ParseViewerConfig(data []byte) (*ViewerConfig, error) {
	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. It panics if the file cannot be found, and is
// intended for tests.
func MustLoadDefaultConfig() *ViewerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/spiview/
	}
	for _, path := range candidates {
		if cfg, err := LoadViewerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set.
func (c *ViewerConfig) Validate() error {
	if c.CanvasMode != nil && !canvas.Mode(*c.CanvasMode).Valid() {
		return fmt.Errorf("canvas_mode must be \"auto\" or \"fixed\", got %q", *c.CanvasMode)
	}
	if c.CanvasHeight != nil && *c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas_height must be positive, got %d", *c.CanvasHeight)
	}
	if c.CanvasWidth != nil && *c.CanvasWidth <= 0 {
		return fmt.Errorf("canvas_width must be positive, got %d", *c.CanvasWidth)
	}
	if c.Margin != nil && *c.Margin < 0 {
		return fmt.Errorf("margin must be non-negative, got %d", *c.Margin)
	}
	h, w := c.GetCanvasHeight(), c.GetCanvasWidth()
	if m := c.GetMargin(); 2*m >= h || 2*m >= w {
		return fmt.Errorf("margin %d leaves no drawable area on a %dx%d canvas", m, h, w)
	}
	if c.BackgroundColor != nil {
		if _, err := canvas.ParseHex(*c.BackgroundColor); err != nil {
			return fmt.Errorf("invalid background_color: %w", err)
		}
	}
	if c.ComponentRadius != nil && *c.ComponentRadius <= 0 {
		return fmt.Errorf("component_radius must be positive, got %d", *c.ComponentRadius)
	}
	if c.ProgressEvery != nil && *c.ProgressEvery <= 0 {
		return fmt.Errorf("progress_every must be positive, got %d", *c.ProgressEvery)
	}
	return nil
}

// GetCanvasMode returns canvas_mode or the default.
func (c *ViewerConfig) GetCanvasMode() canvas.Mode {
	if c.CanvasMode == nil {
		return canvas.ModeAuto
	}
	return canvas.Mode(*c.CanvasMode)
}

// GetCanvasHeight returns canvas_height or the default.
func (c *ViewerConfig) GetCanvasHeight() int {
	if c.CanvasHeight == nil {
		return canvas.DefaultConfig().Size.Height
	}
	return *c.CanvasHeight
}

// GetCanvasWidth returns canvas_width or the default.
func (c *ViewerConfig) GetCanvasWidth() int {
	if c.CanvasWidth == nil {
		return canvas.DefaultConfig().Size.Width
	}
	return *c.CanvasWidth
}

// GetMargin returns margin or the default.
func (c *ViewerConfig) GetMargin() int {
	if c.Margin == nil {
		return canvas.DefaultConfig().Margin
	}
	return *c.Margin
}

// GetBackgroundColor returns background_color or the default. An invalid
// value falls back to the default as well.
func (c *ViewerConfig) GetBackgroundColor() canvas.RGB {
	def := canvas.DefaultConfig().Background
	if c.BackgroundColor == nil {
		return def
	}
	rgb, err := canvas.ParseHex(*c.BackgroundColor)
	if err != nil {
		return def
	}
	return rgb
}

// GetComponentRadius returns component_radius or the default.
func (c *ViewerConfig) GetComponentRadius() int {
	if c.ComponentRadius == nil {
		return canvas.DefaultConfig().ComponentRadius
	}
	return *c.ComponentRadius
}

// GetProgressEvery returns progress_every or the default.
func (c *ViewerConfig) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return DefaultProgressEvery
	}
	return *c.ProgressEvery
}

// GetSnapshotCache reports whether snapshot files are read and written.
func (c *ViewerConfig) GetSnapshotCache() bool {
	if c.SnapshotCache == nil {
		return true
	}
	return *c.SnapshotCache
}

// GetHistoryDB returns history_db or the default.
func (c *ViewerConfig) GetHistoryDB() string {
	if c.HistoryDB == nil || *c.HistoryDB == "" {
		return DefaultHistoryDB
	}
	return *c.HistoryDB
}

// GetListen returns listen or the default.
func (c *ViewerConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// CanvasConfig builds the canvas settings. Bounds are left unset.
func (c *ViewerConfig) CanvasConfig() *canvas.Config {
	cfg := canvas.DefaultConfig()
	cfg.Mode = c.GetCanvasMode()
	cfg.Size.Height = c.GetCanvasHeight()
	cfg.Size.Width = c.GetCanvasWidth()
	cfg.Margin = c.GetMargin()
	cfg.Background = c.GetBackgroundColor()
	cfg.ComponentRadius = c.GetComponentRadius()
	return cfg
}

// Merge returns a copy of c with every field that is set in o overriding.
func (c *ViewerConfig) Merge(o *ViewerConfig) *ViewerConfig {
	out := *c
	if o == nil {
		return &out
	}
	if o.CanvasMode != nil {
		out.CanvasMode = o.CanvasMode
	}
	if o.CanvasHeight != nil {
		out.CanvasHeight = o.CanvasHeight
	}
	if o.CanvasWidth != nil {
		out.CanvasWidth = o.CanvasWidth
	}
	if o.Margin != nil {
		out.Margin = o.Margin
	}
	if o.BackgroundColor != nil {
		out.BackgroundColor = o.BackgroundColor
	}
	if o.ComponentRadius != nil {
		out.ComponentRadius = o.ComponentRadius
	}
	if o.ProgressEvery != nil {
		out.ProgressEvery = o.ProgressEvery
	}
	if o.SnapshotCache != nil {
		out.SnapshotCache = o.SnapshotCache
	}
	if o.HistoryDB != nil {
		out.HistoryDB = o.HistoryDB
	}
	if o.Listen != nil {
		out.Listen = o.Listen
	}
	return &out
}

// FromCanvas returns a config holding only the canvas fields of cfg.
func FromCanvas(cfg *canvas.Config) *ViewerConfig {
	return &ViewerConfig{
		CanvasMode:      ptrString(string(cfg.Mode)),
		CanvasHeight:    ptrInt(cfg.Size.Height),
		CanvasWidth:     ptrInt(cfg.Size.Width),
		Margin:          ptrInt(cfg.Margin),
		BackgroundColor: ptrString(cfg.Background.Hex()),
		ComponentRadius: ptrInt(cfg.ComponentRadius),
	}
}
