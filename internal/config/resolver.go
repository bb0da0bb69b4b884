package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quillback/logbook/internal/extract"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath     string
	CLIDBPath      string
	CLIOCRProvider string
	CLIRefineModel string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath         ResolvedValue `json:"db_path"`
	OCRProvider    ResolvedValue `json:"ocr_provider"`
	RefineModel    ResolvedValue `json:"refine_model"`
	TesseractLangs ResolvedValue `json:"tesseract_langs"`

	APIKeys map[string]ResolvedValue `json:"api_keys,omitempty"`

	// Engine carries raw threshold overrides from the config file's
	// engine: section. Zero fields mean "use the default"; the extract
	// engine back-fills via Normalize.
	Engine extract.Options `json:"engine"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	OCR    struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		Langs    string `yaml:"langs"`
	} `yaml:"ocr"`
	Refine struct {
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
	} `yaml:"refine"`
	Engine struct {
		MinContentLength      int `yaml:"min_content_length"`
		MinDateStrippedLength int `yaml:"min_date_stripped_length"`
		MinWordCount          int `yaml:"min_word_count"`
		MaxLabelWords         int `yaml:"max_label_words"`
		HeaderProximityLines  int `yaml:"header_proximity_lines"`
		MinStructuredDays     int `yaml:"min_structured_days"`
		MaxLineDays           int `yaml:"max_line_days"`
		EscalationTextLength  int `yaml:"escalation_text_length"`
		ShortActivityLength   int `yaml:"short_activity_length"`
	} `yaml:"engine"`
}

const (
	defaultDBPath         = "~/.logbook/logbook.db"
	defaultOCRProvider    = "google"
	defaultTesseractLangs = "eng"
)

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".logbook", "config.yaml")
}

// Resolve merges configuration sources, highest wins: CLI flags,
// environment, config file, built-in defaults. Every value remembers
// where it came from so the config command can print provenance.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath:     path,
		DBPath:         ResolvedValue{Value: defaultDBPath, Source: SourceDefault},
		OCRProvider:    ResolvedValue{Value: defaultOCRProvider, Source: SourceDefault},
		RefineModel:    ResolvedValue{Source: SourceDefault}, // empty: refinement off
		TesseractLangs: ResolvedValue{Value: defaultTesseractLangs, Source: SourceDefault},
		APIKeys:        map[string]ResolvedValue{},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.OCRProvider, cfg.OCR.Provider, SourceConfig, path)
		apply(&out.RefineModel, cfg.Refine.Model, SourceConfig, path)
		apply(&out.TesseractLangs, cfg.OCR.Langs, SourceConfig, path)

		if key := strings.TrimSpace(cfg.OCR.APIKey); key != "" {
			out.APIKeys["google"] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
		if key := strings.TrimSpace(cfg.Refine.APIKey); key != "" {
			provider := providerOf(cfg.Refine.Model)
			if provider == "" {
				provider = "default"
			}
			out.APIKeys[provider] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}

		out.Engine = extract.Options{
			MinContentLength:      cfg.Engine.MinContentLength,
			MinDateStrippedLength: cfg.Engine.MinDateStrippedLength,
			MinWordCount:          cfg.Engine.MinWordCount,
			MaxLabelWords:         cfg.Engine.MaxLabelWords,
			HeaderProximityLines:  cfg.Engine.HeaderProximityLines,
			MinStructuredDays:     cfg.Engine.MinStructuredDays,
			MaxLineDays:           cfg.Engine.MaxLineDays,
			EscalationTextLength:  cfg.Engine.EscalationTextLength,
			ShortActivityLength:   cfg.Engine.ShortActivityLength,
		}
	}

	applyEnv(&out.DBPath, "LOGBOOK_DB")
	applyEnv(&out.OCRProvider, "LOGBOOK_OCR_PROVIDER")
	applyEnv(&out.RefineModel, "LOGBOOK_REFINE_MODEL")
	applyEnv(&out.TesseractLangs, "TESSERACT_LANGS")

	for env, provider := range map[string]string{
		"GEMINI_API_KEY":     "google",
		"GOOGLE_API_KEY":     "google",
		"OPENROUTER_API_KEY": "openrouter",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			out.APIKeys[provider] = ResolvedValue{Value: v, Source: SourceEnv, From: env}
		}
	}

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.OCRProvider, opts.CLIOCRProvider, SourceCLI, "--ocr")
	apply(&out.RefineModel, opts.CLIRefineModel, SourceCLI, "--refine-model")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// APIKeyForProvider returns the resolved key for a provider or
// provider/model string, falling back to the shared default key.
func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		return ResolvedValue{}
	}
	if v, ok := r.APIKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.APIKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
