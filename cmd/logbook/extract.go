package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/ingest"
)

type extractOutput struct {
	ID        int64 `json:"id,omitempty"`
	Duplicate bool  `json:"duplicate,omitempty"`
	extract.Result
}

func runExtract(args []string) error {
	var (
		file      string
		format    string
		source    string
		ocrFlag   string
		modelFlag string
		doRefine  bool
		doSave    bool
	)

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--refine":
			doRefine = true
		case args[i] == "--save":
			doSave = true
		case args[i] == "--format" && i+1 < len(args):
			i++
			format = strings.ToLower(strings.TrimSpace(args[i]))
		case strings.HasPrefix(args[i], "--format="):
			format = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(args[i], "--format=")))
		case args[i] == "--source" && i+1 < len(args):
			i++
			source = args[i]
		case strings.HasPrefix(args[i], "--source="):
			source = strings.TrimPrefix(args[i], "--source=")
		case args[i] == "--ocr" && i+1 < len(args):
			i++
			ocrFlag = args[i]
		case strings.HasPrefix(args[i], "--ocr="):
			ocrFlag = strings.TrimPrefix(args[i], "--ocr=")
		case args[i] == "--refine-model" && i+1 < len(args):
			i++
			modelFlag = args[i]
		case strings.HasPrefix(args[i], "--refine-model="):
			modelFlag = strings.TrimPrefix(args[i], "--refine-model=")
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		case file == "":
			file = args[i]
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	if file == "" {
		return fmt.Errorf("usage: logbook extract <file> [--refine] [--save] [--source label] [--format table|json]")
	}
	format, err := pickFormat(format)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(ocrFlag, modelFlag)
	if err != nil {
		return err
	}

	// Image input needs a working OCR backend; text, JSON annotations,
	// and searchable PDFs do not.
	provider, provErr := ocrProviderFromConfig(cfg)
	resolver := ingest.NewResolver(provider)
	if _, needsOCR := resolver.LoaderFor(file).(*ingest.ImageLoader); needsOCR && provErr != nil {
		return fmt.Errorf("building OCR provider: %w", provErr)
	}

	ctx := context.Background()

	if globalVerbose {
		fmt.Fprintf(os.Stderr, "Loading %s\n", file)
	}
	ann, err := resolver.Load(ctx, file)
	if err != nil {
		return err
	}

	engine := extract.NewEngine(cfg.Engine)
	res := engine.Extract(ann)

	if doRefine {
		refiner, err := refinerFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("building refine provider: %w", err)
		}
		if globalVerbose {
			fmt.Fprintln(os.Stderr, "Refining activities")
		}
		res.Activities = refiner.Refine(ctx, res.Activities)
	}

	out := extractOutput{Result: res}
	var created bool

	if doSave {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if source == "" {
			source = filepath.Base(file)
		}
		saved, fresh, err := st.SaveResult(ctx, res, source)
		if err != nil {
			return fmt.Errorf("saving extraction: %w", err)
		}
		out.ID = saved.ID
		out.Duplicate = !fresh
		created = fresh
	}

	if format == "json" {
		return writeJSON(os.Stdout, out)
	}

	renderResult(os.Stdout, res)
	if doSave {
		if created {
			fmt.Printf("\nSaved as extraction #%d\n", out.ID)
		} else {
			fmt.Printf("\nAlready saved as extraction #%d\n", out.ID)
		}
	}
	return nil
}
