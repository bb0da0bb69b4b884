package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/quillback/logbook/internal/config"
	"github.com/quillback/logbook/internal/llm"
	"github.com/quillback/logbook/internal/ocr"
	"github.com/quillback/logbook/internal/refine"
	"github.com/quillback/logbook/internal/store"
)

const version = "0.1.0"

var (
	globalDBPath     string
	globalConfigPath string
	globalVerbose    bool
)

func main() {
	args := parseGlobalFlags(os.Args[1:])
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch args[0] {
	case "extract":
		err = runExtract(args[1:])
	case "history":
		err = runHistory(args[1:])
	case "show":
		err = runShow(args[1:])
	case "search":
		err = runSearch(args[1:])
	case "stats":
		err = runStats(args[1:])
	case "serve":
		err = runServe(args[1:])
	case "mcp":
		err = runMCP(args[1:])
	case "config":
		err = runConfig(args[1:])
	case "version", "--version", "-v":
		fmt.Printf("logbook %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseGlobalFlags strips flags that apply to every command and returns
// the remaining arguments.
func parseGlobalFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--db" && i+1 < len(args):
			i++
			globalDBPath = args[i]
		case strings.HasPrefix(args[i], "--db="):
			globalDBPath = strings.TrimPrefix(args[i], "--db=")
		case args[i] == "--config" && i+1 < len(args):
			i++
			globalConfigPath = args[i]
		case strings.HasPrefix(args[i], "--config="):
			globalConfigPath = strings.TrimPrefix(args[i], "--config=")
		case args[i] == "--verbose":
			globalVerbose = true
		default:
			out = append(out, args[i])
		}
	}
	return out
}

func resolveConfig(ocrFlag, modelFlag string) (config.ResolvedConfig, error) {
	return config.Resolve(config.ResolveOptions{
		ConfigPath:     globalConfigPath,
		CLIDBPath:      globalDBPath,
		CLIOCRProvider: ocrFlag,
		CLIRefineModel: modelFlag,
	})
}

func openStore(cfg config.ResolvedConfig) (store.Store, error) {
	s, err := store.NewStore(store.StoreConfig{DBPath: cfg.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// ocrProviderFromConfig builds the configured OCR backend. Callers that
// only handle text input may ignore the error until an image shows up.
func ocrProviderFromConfig(cfg config.ResolvedConfig) (ocr.Provider, error) {
	pcfg := ocr.ProviderConfig{Provider: cfg.OCRProvider.Value}
	if key := cfg.APIKeyForProvider("google"); key.Value != "" {
		pcfg.APIKey = key.Value
	}
	if strings.EqualFold(cfg.OCRProvider.Value, "tesseract") {
		if langs := strings.TrimSpace(cfg.TesseractLangs.Value); langs != "" {
			pcfg.Languages = strings.Split(langs, ",")
		}
	}
	return ocr.NewProvider(pcfg)
}

func refinerFromConfig(cfg config.ResolvedConfig) (*refine.Refiner, error) {
	modelCfg, err := llm.ParseModelFlag(cfg.RefineModel.Value)
	if err != nil {
		return nil, err
	}
	if key := cfg.APIKeyForProvider(modelCfg.Provider); key.Value != "" {
		modelCfg.APIKey = key.Value
	}
	provider, err := llm.NewProvider(modelCfg)
	if err != nil {
		return nil, err
	}
	return refine.NewRefiner(provider), nil
}

func printUsage() {
	fmt.Printf(`logbook %s — Structured extraction for handwritten weekly logbooks

Usage:
  logbook <command> [arguments]

Commands:
  extract <file>      Extract weekday activities from a logbook page
  history             List recent extractions
  show <id>           Show one stored extraction
  search <query>      Full-text search across extracted activities
  stats               Show extraction statistics and health
  serve               Start the HTTP API server
  mcp                 Start the MCP server on stdio
  config              Print resolved configuration and where each value came from
  version             Print version

Extract Flags:
  --refine            Clean up OCR artifacts with an LLM pass
  --save              Save the result to the local database
  --source <label>    Source label stored with the extraction (default: file name)
  --format <fmt>      Output format: table or json (default depends on terminal)
  --ocr <provider>    OCR provider for image input: google or tesseract
  --refine-model <m>  Refine model as provider/model (e.g. google/gemini-2.5-flash)

Global Flags:
  --db <path>         Database path (default ~/.logbook/logbook.db)
  --config <path>     Config file path (default ~/.logbook/config.yaml)
  --verbose           Verbose output
  -h, --help          Show this help message
  -v, --version       Print version

Documentation:
  https://github.com/quillback/logbook
`, version)
}
