package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quillback/logbook/internal/observe"
	"github.com/quillback/logbook/internal/store"
)

func runHistory(args []string) error {
	limit := 20
	format := ""
	source := ""

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--limit" && i+1 < len(args):
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid --limit value: %s", args[i])
			}
			limit = n
		case strings.HasPrefix(args[i], "--limit="):
			n, err := strconv.Atoi(strings.TrimPrefix(args[i], "--limit="))
			if err != nil {
				return fmt.Errorf("invalid --limit value: %s", args[i])
			}
			limit = n
		case args[i] == "--source" && i+1 < len(args):
			i++
			source = args[i]
		case strings.HasPrefix(args[i], "--source="):
			source = strings.TrimPrefix(args[i], "--source=")
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
	if limit <= 0 {
		limit = 20
	}
	format, err := pickFormat(format)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig("", "")
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	extractions, err := st.ListExtractions(context.Background(), store.ListOpts{Limit: limit, Source: source})
	if err != nil {
		return fmt.Errorf("listing extractions: %w", err)
	}

	if format == "json" {
		return writeJSON(os.Stdout, extractions)
	}

	if len(extractions) == 0 {
		fmt.Println("No extractions stored yet.")
		return nil
	}

	rows := make([][]string, 0, len(extractions))
	for _, e := range extractions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Source,
			dayInitials(e.Activities),
			fmt.Sprintf("%.2f", e.Confidence),
			fmt.Sprintf("%d", len(e.Warnings)),
		})
	}
	fmt.Println(renderTable(
		[]string{"ID", "Created", "Source", "Days", "Conf", "Warnings"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	fmt.Printf("\n%d extractions\n", len(extractions))
	return nil
}

func runShow(args []string) error {
	var idArg string
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
		case idArg == "":
			idArg = args[i]
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	if idArg == "" {
		return fmt.Errorf("usage: logbook show <id>")
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid extraction id: %s", idArg)
	}
	format, err = pickFormat(format)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig("", "")
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	e, err := st.GetExtraction(context.Background(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("extraction %d not found", id)
		}
		return fmt.Errorf("loading extraction: %w", err)
	}

	if format == "json" {
		return writeJSON(os.Stdout, e)
	}
	renderExtraction(os.Stdout, e)
	return nil
}

func runSearch(args []string) error {
	limit := 10
	format := ""
	terms := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--limit" && i+1 < len(args):
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid --limit value: %s", args[i])
			}
			limit = n
		case strings.HasPrefix(args[i], "--limit="):
			n, err := strconv.Atoi(strings.TrimPrefix(args[i], "--limit="))
			if err != nil {
				return fmt.Errorf("invalid --limit value: %s", args[i])
			}
			limit = n
		case args[i] == "--format" && i+1 < len(args):
			i++
			format = strings.ToLower(strings.TrimSpace(args[i]))
		case strings.HasPrefix(args[i], "--format="):
			format = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(args[i], "--format=")))
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			terms = append(terms, args[i])
		}
	}

	query := strings.TrimSpace(strings.Join(terms, " "))
	if query == "" {
		return fmt.Errorf("usage: logbook search <query> [--limit n]")
	}
	if limit <= 0 {
		limit = 10
	}
	format, err := pickFormat(format)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig("", "")
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hits, err := st.SearchActivities(context.Background(), query, limit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if format == "json" {
		return writeJSON(os.Stdout, hits)
	}
	renderHits(os.Stdout, hits)
	return nil
}

func runStats(args []string) error {
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
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := observe.Gather(context.Background(), st)
	if err != nil {
		return fmt.Errorf("gathering stats: %w", err)
	}

	if format == "json" {
		return writeJSON(os.Stdout, stats)
	}

	fmt.Printf("Extractions:    %d\n", stats.TotalExtractions)
	fmt.Printf("Activities:     %d\n", stats.TotalActivities)
	fmt.Printf("Storage:        %s\n", formatBytes(stats.StorageBytes))
	fmt.Printf("Avg confidence: %.2f\n", stats.AvgConfidence)
	fmt.Printf("Success rate:   %.0f%%\n", stats.SuccessRate*100)
	fmt.Printf("Warnings:       %d\n", stats.TotalWarnings)
	fmt.Println()

	rows := make([][]string, 0, len(stats.DayCoverage))
	for _, dc := range stats.DayCoverage {
		rows = append(rows, []string{titleDay(dc.Day), fmt.Sprintf("%d", dc.Count)})
	}
	fmt.Println(renderTable([]string{"Day", "Activities"}, rows, []columnAlignment{alignLeft, alignRight}))

	fmt.Printf("\nFreshness: %d today, %d this week, %d this month, %d older\n",
		stats.Freshness.Today, stats.Freshness.ThisWeek, stats.Freshness.ThisMonth, stats.Freshness.Older)

	for _, alert := range stats.Alerts {
		fmt.Printf("Alert: %s\n", alert)
	}
	return nil
}
