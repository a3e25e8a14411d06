package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/spiview/internal/canvas"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultsFileMatchesCode(t *testing.T) {
	got := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultViewerConfig(), got); diff != "" {
		t.Errorf("defaults file mismatch (-code +file):\n%s", diff)
	}
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyViewerConfig()
	if diff := cmp.Diff(canvas.DefaultConfig(), cfg.CanvasConfig()); diff != "" {
		t.Errorf("CanvasConfig() mismatch (-want +got):\n%s", diff)
	}
	if cfg.GetProgressEvery() != DefaultProgressEvery {
		t.Errorf("GetProgressEvery() = %d, want %d", cfg.GetProgressEvery(), DefaultProgressEvery)
	}
	if !cfg.GetSnapshotCache() {
		t.Error("GetSnapshotCache() = false, want true")
	}
	if cfg.GetHistoryDB() != DefaultHistoryDB {
		t.Errorf("GetHistoryDB() = %q", cfg.GetHistoryDB())
	}
	if cfg.GetListen() != DefaultListen {
		t.Errorf("GetListen() = %q", cfg.GetListen())
	}
}

func TestLoadViewerConfig_Partial(t *testing.T) {
	path := writeConfig(t, "viewer.json", `{
  "canvas_mode": "fixed",
  "canvas_height": 2000,
  "margin": 50,
  "background_color": "#000000",
  "listen": ":9000"
}`)

	cfg, err := LoadViewerConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	c := cfg.CanvasConfig()
	if c.Mode != canvas.ModeFixed {
		t.Errorf("Mode = %q, want fixed", c.Mode)
	}
	if c.Size.Height != 2000 || c.Size.Width != 10000 {
		t.Errorf("Size = %+v", c.Size)
	}
	if c.Margin != 50 {
		t.Errorf("Margin = %d, want 50", c.Margin)
	}
	if c.Background != (canvas.RGB{}) {
		t.Errorf("Background = %+v, want black", c.Background)
	}
	if c.ComponentRadius != 10 {
		t.Errorf("ComponentRadius = %d, want 10", c.ComponentRadius)
	}
	if c.Bounds != canvas.UnsetBounds {
		t.Errorf("Bounds = %+v, want unset", c.Bounds)
	}
	if cfg.GetListen() != ":9000" {
		t.Errorf("GetListen() = %q", cfg.GetListen())
	}
}

func TestLoadViewerConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"wrong extension", "viewer.yaml", `{}`, ".json extension"},
		{"bad json", "viewer.json", `{"margin":`, "failed to parse"},
		{"bad mode", "viewer.json", `{"canvas_mode":"stretch"}`, "canvas_mode"},
		{"zero height", "viewer.json", `{"canvas_height":0}`, "canvas_height"},
		{"negative margin", "viewer.json", `{"margin":-1}`, "margin"},
		{"margin too large", "viewer.json", `{"canvas_height":1000,"canvas_width":1000,"margin":500}`, "no drawable area"},
		{"bad colour", "viewer.json", `{"background_color":"purple"}`, "background_color"},
		{"zero radius", "viewer.json", `{"component_radius":0}`, "component_radius"},
		{"zero progress", "viewer.json", `{"progress_every":0}`, "progress_every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadViewerConfig(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadViewerConfig_Missing(t *testing.T) {
	if _, err := LoadViewerConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadViewerConfig_TooLarge(t *testing.T) {
	big := `{"listen":"` + strings.Repeat("x", 1024*1024) + `"}`
	_, err := LoadViewerConfig(writeConfig(t, "big.json", big))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected a size error, got %v", err)
	}
}

func TestMergeAndFromCanvas(t *testing.T) {
	base := DefaultViewerConfig()
	override := &ViewerConfig{Margin: ptrInt(20), Listen: ptrString(":1")}

	got := base.Merge(override)
	if got.GetMargin() != 20 || got.GetListen() != ":1" {
		t.Errorf("Merge() = margin %d listen %q", got.GetMargin(), got.GetListen())
	}
	if base.GetMargin() != 500 {
		t.Errorf("Merge() modified the receiver")
	}
	if got.GetCanvasHeight() != 10000 {
		t.Errorf("Merge() dropped canvas_height")
	}

	c := got.CanvasConfig()
	round := FromCanvas(c).CanvasConfig()
	if diff := cmp.Diff(c, round); diff != "" {
		t.Errorf("FromCanvas round trip mismatch (-want +got):\n%s", diff)
	}
}
