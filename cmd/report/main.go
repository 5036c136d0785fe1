// Command report runs read-only queries against the scrape history
// database: recent runs, a single city's trend, or the wars log.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/switchlove/FragileCityScraper/config"
	"github.com/switchlove/FragileCityScraper/storage"
)

func main() {
	defaults := config.DefaultConfig()
	if value, ok := config.EnvString("SCRAPER_DB_PATH"); ok {
		defaults.DatabasePath = value
	}

	dbPath := flag.String("db", defaults.DatabasePath, "Path to the sqlite history database")
	limit := flag.Int("limit", 20, "Maximum rows to show")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	store, err := storage.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch cmd := flag.Arg(0); cmd {
	case "runs":
		err = showRuns(ctx, store, *limit)
	case "city":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "city requires a city name")
			os.Exit(2)
		}
		err = showCityTrend(ctx, store, flag.Arg(1), *limit)
	case "wars":
		err = showWars(ctx, store, *limit)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: report [flags] <command>

Commands:
  runs           list recent scrape runs
  city <name>    show one city's pollution/citizen trend
  wars           list persisted wars

Flags:
`)
	flag.PrintDefaults()
}

func showRuns(ctx context.Context, store *storage.Store, limit int) error {
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Printf("%-6s %-20s %-8s %8s %7s %6s %7s %6s %6s\n",
		"RUN", "STARTED", "VERSION", "MS", "CITIES", "WARS", "FAILED", "ERRS", "WARNS")
	for _, r := range runs {
		fmt.Printf("%-6d %-20s %-8s %8d %7d %6d %7d %6d %6d\n",
			r.ID, r.StartedAt, r.Version, r.DurationMS,
			r.CityCount, r.WarCount, r.DetailFailed, r.ErrorCount, r.WarningCount)
	}
	return nil
}

func showCityTrend(ctx context.Context, store *storage.Store, name string, limit int) error {
	points, err := store.CityTrend(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Printf("no history for %q\n", name)
		return nil
	}
	fmt.Printf("%-6s %-20s %12s %10s\n", "RUN", "SCRAPED", "POLLUTION", "CITIZENS")
	for _, p := range points {
		pollution, citizens := "-", "-"
		if p.Pollution.Valid {
			pollution = fmt.Sprintf("%d", p.Pollution.Int64)
		}
		if p.Citizens.Valid {
			citizens = fmt.Sprintf("%d", p.Citizens.Int64)
		}
		fmt.Printf("%-6d %-20s %12s %10s\n", p.RunID, p.ScrapedAt, pollution, citizens)
	}
	return nil
}

func showWars(ctx context.Context, store *storage.Store, limit int) error {
	wars, err := store.WarHistory(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Printf("%-6s %-20s %-20s %9s %5s\n", "RUN", "ATTACKER", "DEFENDER", "MISSILES", "BOTH")
	for _, w := range wars {
		missiles := "-"
		if w.Missiles.Valid {
			missiles = fmt.Sprintf("%d", w.Missiles.Int64)
		}
		fmt.Printf("%-6d %-20s %-20s %9s %5v\n", w.RunID, w.Attacker, w.Defender, missiles, w.BothActive)
	}
	return nil
}
