package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_Precedence(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `db_path: ~/.logbook/from-config.db
ocr:
  provider: tesseract
refine:
  model: openrouter/openai/gpt-4o-mini
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LOGBOOK_DB", "~/from-env.db")
	t.Setenv("LOGBOOK_OCR_PROVIDER", "google")
	t.Setenv("LOGBOOK_REFINE_MODEL", "")

	resolved, err := Resolve(ResolveOptions{
		ConfigPath: cfgPath,
		CLIDBPath:  filepath.Join(tmp, "from-cli.db"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected DB path source cli, got %s", resolved.DBPath.Source)
	}
	if resolved.OCRProvider.Source != SourceEnv || resolved.OCRProvider.Value != "google" {
		t.Fatalf("expected ocr provider from env, got %s=%q", resolved.OCRProvider.Source, resolved.OCRProvider.Value)
	}
	if resolved.RefineModel.Source != SourceConfig {
		t.Fatalf("expected refine model from config, got %s", resolved.RefineModel.Source)
	}
	if resolved.RefineModel.From != cfgPath {
		t.Fatalf("expected refine model provenance %q, got %q", cfgPath, resolved.RefineModel.From)
	}
}

func TestResolve_Defaults(t *testing.T) {
	t.Setenv("LOGBOOK_DB", "")
	t.Setenv("LOGBOOK_OCR_PROVIDER", "")
	t.Setenv("LOGBOOK_REFINE_MODEL", "")
	t.Setenv("TESSERACT_LANGS", "")

	resolved, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.DBPath.Source != SourceDefault {
		t.Errorf("expected default db path source, got %s", resolved.DBPath.Source)
	}
	if resolved.OCRProvider.Value != "google" || resolved.OCRProvider.Source != SourceDefault {
		t.Errorf("expected default ocr provider google, got %s=%q", resolved.OCRProvider.Source, resolved.OCRProvider.Value)
	}
	if resolved.RefineModel.Value != "" {
		t.Errorf("expected refinement off by default, got %q", resolved.RefineModel.Value)
	}
	if resolved.TesseractLangs.Value != "eng" {
		t.Errorf("expected default tesseract langs eng, got %q", resolved.TesseractLangs.Value)
	}
}

func TestResolve_EngineSection(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `engine:
  header_proximity_lines: 4
  short_activity_length: 50
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	resolved, err := Resolve(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.Engine.HeaderProximityLines != 4 {
		t.Errorf("expected header proximity 4, got %d", resolved.Engine.HeaderProximityLines)
	}
	if resolved.Engine.ShortActivityLength != 50 {
		t.Errorf("expected short activity length 50, got %d", resolved.Engine.ShortActivityLength)
	}

	// Unset thresholds stay zero and back-fill downstream.
	if resolved.Engine.MinWordCount != 0 {
		t.Errorf("expected unset min word count, got %d", resolved.Engine.MinWordCount)
	}
	norm := resolved.Engine.Normalize()
	if norm.MinWordCount != 3 {
		t.Errorf("expected normalized min word count 3, got %d", norm.MinWordCount)
	}
	if norm.HeaderProximityLines != 4 {
		t.Errorf("expected normalize to keep override 4, got %d", norm.HeaderProximityLines)
	}
}

func TestAPIKeyForProvider_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `refine:
  model: openrouter/openai/gpt-4o-mini
  api_key: config-key
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	resolved, err := Resolve(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	k := resolved.APIKeyForProvider("openrouter/some-model")
	if k.Value != "env-key" {
		t.Fatalf("expected env key, got %q", k.Value)
	}
	if k.Source != SourceEnv {
		t.Fatalf("expected source env, got %s", k.Source)
	}
}

func TestAPIKeyForProvider_DefaultFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	resolved := ResolvedConfig{
		APIKeys: map[string]ResolvedValue{
			"default": {Value: "shared-key", Source: SourceConfig},
		},
	}
	k := resolved.APIKeyForProvider("google/gemini-2.5-flash")
	if k.Value != "shared-key" {
		t.Fatalf("expected shared key fallback, got %q", k.Value)
	}

	if k := resolved.APIKeyForProvider(""); k.Value != "" {
		t.Fatalf("expected empty key for empty provider, got %q", k.Value)
	}
}
