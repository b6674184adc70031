// CLAUDE:SUMMARY CLI entry point for hovertable — interactive chart tooltip extraction loop.
// Command hovertable extracts structured data from chart tooltips by
// driving a real browser over a page, hovering across each chart, and
// parsing what the tooltips reveal.
//
// Usage:
//
//	hovertable                          # interactive loop, default config
//	hovertable -config hovertable.yaml  # with config file
//	hovertable -db runs.db              # journal location override
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hovertable/hovertable/hover"
	"github.com/hovertable/hovertable/journal"
	"github.com/hovertable/hovertable/pivot"
	"github.com/hovertable/hovertable/tipparse"
)

func main() {
	configPath := flag.String("config", "", "path to hovertable.yaml config file")
	dbPath := flag.String("db", "", "journal database path (overrides config)")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *dbPath); err != nil {
		logger.Error("hovertable: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, dbPath string) error {
	cfg := hover.DefaultConfig()
	if configPath != "" {
		loaded, err := hover.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Journal.Path = dbPath
	}

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()
	store := journal.NewStore(db)

	parser := tipparse.New(tipparse.Options{
		FallbackYear:    cfg.Parse.FallbackYear,
		ExcludedDomains: cfg.Parse.ExcludedDomains,
	})

	session := hover.NewSession(cfg, logger)
	defer session.Close()

	loop := &cli{
		in:      bufio.NewScanner(os.Stdin),
		session: session,
		store:   store,
		parser:  parser,
	}
	return loop.run(ctx)
}

// cli is the interactive extraction loop: URL, chart, sweep, repeat.
type cli struct {
	in      *bufio.Scanner
	session *hover.Session
	store   *journal.Store
	parser  *tipparse.Parser
}

func (c *cli) run(ctx context.Context) error {
	fmt.Println("=== hovertable: chart tooltip extraction ===")

	for {
		url, ok := c.promptURL(ctx)
		if !ok {
			return nil
		}

		charts, err := c.session.Open(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, hover.ErrNoCharts) {
				fmt.Println("[!] Page loaded but no charts were found.")
			} else {
				fmt.Printf("[!] Could not open page: %v\n", err)
			}
			continue
		}

		if !c.pageLoop(ctx, charts) {
			return nil
		}
	}
}

// promptURL reads the next URL; empty input or EOF quits.
func (c *cli) promptURL(ctx context.Context) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	fmt.Print("\nEnter page URL (empty to quit): ")
	if !c.in.Scan() {
		return "", false
	}
	url := strings.TrimSpace(c.in.Text())
	if url == "" {
		return "", false
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url, true
}

// pageLoop extracts charts from the open page until the operator moves
// on. Returns false to quit the program entirely.
func (c *cli) pageLoop(ctx context.Context, charts []hover.Chart) bool {
	for {
		printCharts(charts)

		idx, ok := c.promptChart(ctx, len(charts))
		if !ok {
			return true // back to URL prompt
		}

		c.extractOne(ctx, charts[idx], idx)
		if ctx.Err() != nil {
			return false
		}

		fmt.Print("\nExtract another chart from this page? [y/N]: ")
		if !c.in.Scan() || !strings.EqualFold(strings.TrimSpace(c.in.Text()), "y") {
			return true
		}

		// The page may have re-rendered during the sweep.
		rescanned, err := c.session.Rescan(ctx)
		if err == nil {
			charts = rescanned
		}
	}
}

func (c *cli) promptChart(ctx context.Context, n int) (int, bool) {
	for {
		if ctx.Err() != nil {
			return 0, false
		}
		fmt.Printf("Select chart [1-%d] (empty to go back): ", n)
		if !c.in.Scan() {
			return 0, false
		}
		text := strings.TrimSpace(c.in.Text())
		if text == "" {
			return 0, false
		}
		idx, err := strconv.Atoi(text)
		if err != nil || idx < 1 || idx > n {
			fmt.Println("[!] Invalid selection.")
			continue
		}
		return idx - 1, true
	}
}

func (c *cli) extractOne(ctx context.Context, chart hover.Chart, idx int) {
	fmt.Printf("\n[*] Extracting %q...\n", chart.Title)

	run, err := c.store.CreateRun(ctx, c.session.URL(), chart.Title)
	if err != nil {
		fmt.Printf("[!] Journal unavailable: %v\n", err)
	}

	tips, err := c.session.Extract(ctx, idx, func(pos, end, captured int) {
		if pos%10 == 0 || pos == end {
			fmt.Printf("   Position %d/%d -- %d unique tooltips so far\n", pos, end, captured)
		}
	})
	if err != nil {
		fmt.Printf("[!] Extraction failed: %v\n", err)
		if run != nil {
			c.store.FailRun(ctx, run.ID, err)
		}
		return
	}

	fmt.Printf("[+] Extraction completed: %d tooltips captured\n", len(tips))
	if len(tips) == 0 {
		if run != nil {
			c.store.FinishRun(ctx, run.ID, "", 0)
		}
		return
	}

	if run != nil {
		if err := c.store.SaveTooltips(ctx, run.ID, tips); err != nil {
			fmt.Printf("[!] Could not journal tooltips: %v\n", err)
		}
	}

	printRawTips(tips)

	batch := c.parser.ParseBatch(tips)
	table := pivot.Build(batch)

	if run != nil {
		c.store.FinishRun(ctx, run.ID, batch.Dialect.String(), len(batch.Records))
	}

	if table.Empty() {
		fmt.Println("\n[!] Could not parse structured data from the tooltips.")
		fmt.Println("    The raw text above is all that was captured.")
	} else {
		fmt.Println()
		fmt.Println(pivot.Text(table))
	}

	saveWorkbook(table, tips)
}

func printCharts(charts []hover.Chart) {
	fmt.Printf("\n[+] Found %d chart(s):\n", len(charts))
	for i, c := range charts {
		fmt.Printf("  %d. %s (%dx%d)\n", i+1, c.Title, c.Width, c.Height)
	}
}

func printRawTips(tips []string) {
	line := strings.Repeat("=", 70)
	fmt.Printf("\n%s\nRAW TOOLTIPS CAPTURED (%d)\n%s\n", line, len(tips), line)
	for i, tip := range tips {
		preview := strings.ReplaceAll(tip, "\n", " | ")
		if r := []rune(preview); len(r) > 200 {
			preview = string(r[:200])
		}
		fmt.Printf("  %d. %s\n", i+1, preview)
	}
}

func saveWorkbook(table *pivot.Table, tips []string) {
	data, err := pivot.Excel(table, tips)
	if err != nil {
		fmt.Printf("[!] Could not build XLSX: %v\n", err)
		return
	}

	filename := "chart_data_" + time.Now().Format("20060102_150405") + ".xlsx"
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		fmt.Printf("[!] Could not save %s: %v\n", filename, err)
		return
	}
	fmt.Printf("\n[+] Saved %s\n", filename)
}
