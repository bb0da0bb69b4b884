package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/quillback/logbook/internal/config"
)

func runConfig(args []string) error {
	format := ""

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--format" && i+1 < len(args):
			i++
			format = strings.ToLower(strings.TrimSpace(args[i]))
		case strings.HasPrefix(args[i], "--format="):
			format = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(args[i], "--format=")))
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}
	format, err := pickFormat(format)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig("", "")
	if err != nil {
		return err
	}

	// Keys never leave the process unmasked.
	masked := make(map[string]config.ResolvedValue, len(cfg.APIKeys))
	for provider, v := range cfg.APIKeys {
		v.Value = maskKey(v.Value)
		masked[provider] = v
	}
	cfg.APIKeys = masked

	if format == "json" {
		return writeJSON(os.Stdout, cfg)
	}

	fmt.Printf("Config file: %s\n\n", cfg.ConfigPath)

	rows := [][]string{
		{"db_path", displayValue(cfg.DBPath.Value), sourceLabel(cfg.DBPath)},
		{"ocr_provider", displayValue(cfg.OCRProvider.Value), sourceLabel(cfg.OCRProvider)},
		{"refine_model", displayValue(cfg.RefineModel.Value), sourceLabel(cfg.RefineModel)},
		{"tesseract_langs", displayValue(cfg.TesseractLangs.Value), sourceLabel(cfg.TesseractLangs)},
	}
	providers := make([]string, 0, len(cfg.APIKeys))
	for provider := range cfg.APIKeys {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	for _, provider := range providers {
		v := cfg.APIKeys[provider]
		rows = append(rows, []string{"api_key (" + provider + ")", v.Value, sourceLabel(v)})
	}
	fmt.Println(renderTable([]string{"Setting", "Value", "Source"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))

	fmt.Println()
	fmt.Println(renderTable([]string{"Threshold", "Value", "Source"}, engineRows(cfg), []columnAlignment{alignLeft, alignRight, alignLeft}))
	return nil
}

func engineRows(cfg config.ResolvedConfig) [][]string {
	eff := cfg.Engine.Normalize()
	raw := cfg.Engine

	configured := fmt.Sprintf("config (%s)", cfg.ConfigPath)
	src := func(overridden bool) string {
		if overridden {
			return configured
		}
		return "default"
	}

	return [][]string{
		{"min_content_length", strconv.Itoa(eff.MinContentLength), src(raw.MinContentLength != 0)},
		{"min_date_stripped_length", strconv.Itoa(eff.MinDateStrippedLength), src(raw.MinDateStrippedLength != 0)},
		{"min_word_count", strconv.Itoa(eff.MinWordCount), src(raw.MinWordCount != 0)},
		{"max_label_words", strconv.Itoa(eff.MaxLabelWords), src(raw.MaxLabelWords != 0)},
		{"header_proximity_lines", strconv.Itoa(eff.HeaderProximityLines), src(raw.HeaderProximityLines != 0)},
		{"min_structured_days", strconv.Itoa(eff.MinStructuredDays), src(raw.MinStructuredDays != 0)},
		{"max_line_days", strconv.Itoa(eff.MaxLineDays), src(raw.MaxLineDays != 0)},
		{"escalation_text_length", strconv.Itoa(eff.EscalationTextLength), src(raw.EscalationTextLength != 0)},
		{"short_activity_length", strconv.Itoa(eff.ShortActivityLength), src(raw.ShortActivityLength != 0)},
	}
}

func sourceLabel(v config.ResolvedValue) string {
	if v.From != "" {
		return fmt.Sprintf("%s (%s)", v.Source, v.From)
	}
	return string(v.Source)
}

func displayValue(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
