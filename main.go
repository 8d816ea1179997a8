package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"teamform-scraper/config"
	"teamform-scraper/expand"
	"teamform-scraper/fetch"
	"teamform-scraper/log"
	"teamform-scraper/output"
	"teamform-scraper/scraper"
	"teamform-scraper/types"
)

var version = "dev"

// processPeriod runs expansion, extraction and persistence for one period.
// Every failure is captured in the returned status so the run can continue
// with the next period.
func processPeriod(ctx context.Context, s *scraper.Scraper, f fetch.Fetcher, w output.Writer, p types.Period) types.PeriodStatus {
	logger := slog.With(slog.String("period", p.Key()))
	ctx = log.ContextWithLogger(ctx, logger)
	status := types.PeriodStatus{Period: p, Outcome: types.StatusOK}

	logger.Info("processing period")
	result, err := s.ScrapePeriod(ctx, f, p)
	if err != nil {
		logger.Error(fmt.Sprintf("scraping failed: %v", err))
		status.Outcome = types.StatusFailed
		status.Err = err.Error()
		return status
	}
	status.Rows = len(result.Records.Records)
	status.Activations = result.Expansion.Activations

	if err := w.Write(ctx, p, result.Records); err != nil {
		logger.Error(fmt.Sprintf("writing failed: %v", err))
		status.Outcome = types.StatusFailed
		status.Err = err.Error()
		return status
	}
	if result.Expansion.Outcome == expand.OutcomeAborted {
		status.Outcome = types.StatusPartial
	}
	logger.Info(fmt.Sprintf("done: %d records after %d activations (%s)",
		status.Rows, status.Activations, result.Expansion.Outcome))
	return status
}

func printSummary(statuses []types.PeriodStatus) {
	slog.Info("printing period summary")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Period", "Status", "Records", "Activations", "Error"})

	counts := map[string]int{}
	for _, s := range statuses {
		counts[s.Outcome]++
		row := []string{s.Period.Key(), s.Outcome, strconv.Itoa(s.Rows), strconv.Itoa(s.Activations), s.Err}
		switch s.Outcome {
		case types.StatusFailed:
			table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}})
		case types.StatusPartial:
			table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}})
		default:
			table.Append(row)
		}
	}
	table.SetFooter([]string{"total", fmt.Sprintf("%d ok / %d partial / %d failed",
		counts[types.StatusOK], counts[types.StatusPartial], counts[types.StatusFailed]), strconv.Itoa(len(statuses)), "", ""})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	table.SetBorder(false)
	table.Render()
}

func main() {
	os.Exit(run())
}

func run() int {
	singlePeriod := flag.String("s", "", "Only process the period with the given key, eg. 12_q3.")
	toStdout := flag.Bool("stdout", false, "If set to true the scraped data will be written to stdout despite any other existing writer configurations.")
	configLoc := flag.String("c", "./config.yml", "The location of the configuration file.")
	printVersion := flag.Bool("v", false, "The version of teamform-scraper.")
	debugFlag := flag.Bool("debug", false, "Prints debug logs and writes fetched html's to files.")
	summaryFlag := flag.Bool("summary", false, "Print a per-period summary at the end.")
	dumpConfig := flag.Bool("dump-config", false, "Print the effective configuration and exit.")
	force := flag.Bool("force", false, "Re-scrape periods whose output artifact already exists.")

	flag.Parse()

	if *printVersion {
		buildInfo, ok := debug.ReadBuildInfo()
		if ok {
			if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
				fmt.Println(buildInfo.Main.Version)
				return 0
			}
		}
		fmt.Println(version)
		return 0
	}

	config.Debug = *debugFlag
	_ = godotenv.Load()

	cfg, err := scraper.NewConfig(*configLoc)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return 1
	}
	if err := log.InitializeDefaultLogger(cfg.LogFile); err != nil {
		slog.Error(fmt.Sprintf("failed to initialize logger: %v", err))
		return 1
	}

	if *dumpConfig {
		y, err := cfg.Dump()
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return 1
		}
		fmt.Print(y)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The site is only reachable through a rendering proxy in production.
	// The proxy address lives in the credentials file; running without one
	// is fine for development.
	if cfg.Fetcher.ProxyServer == "" && cfg.LinksPath != "" {
		if links, err := config.LoadLinks(cfg.LinksPath); err != nil {
			slog.Warn(fmt.Sprintf("no credentials loaded: %v", err))
		} else if proxy := links.Get("scraperapi"); proxy != "" {
			cfg.Fetcher.ProxyServer = strings.Replace(proxy, "url=", "render=true", 1)
		}
	}

	fetcher, err := fetch.New(&cfg.Fetcher)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return 1
	}
	defer fetcher.Cancel()

	var writer output.Writer
	if *toStdout {
		writer = output.NewStdoutWriter(&cfg.Writer)
	} else {
		writer, err = output.New(&cfg.Writer, cfg.Scraper.Category)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return 1
		}
	}

	periods, err := cfg.Scraper.Periods(ctx, fetcher)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to enumerate periods: %v", err))
		return 1
	}
	slog.Info(fmt.Sprintf("found %d periods", len(periods)))

	if *singlePeriod != "" {
		p, err := types.ParsePeriodKey(*singlePeriod)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return 1
		}
		periods = []types.Period{p}
	}

	if fw, ok := writer.(*output.FileWriter); ok && !*force {
		done := fw.AlreadyProcessed()
		remaining := periods[:0]
		for _, p := range periods {
			if done[p.Key()] {
				slog.Debug(fmt.Sprintf("skipping already processed period %s", p))
				continue
			}
			remaining = append(remaining, p)
		}
		if skipped := len(periods) - len(remaining); skipped > 0 {
			slog.Info(fmt.Sprintf("skipping %d already processed periods", skipped))
		}
		periods = remaining
	}

	statuses := make([]types.PeriodStatus, 0, len(periods))
	for _, p := range periods {
		if ctx.Err() != nil {
			slog.Warn("run canceled, stopping")
			break
		}
		statuses = append(statuses, processPeriod(ctx, &cfg.Scraper, fetcher, writer, p))
	}

	if *summaryFlag {
		printSummary(statuses)
	}

	exitCode := 0
	for _, s := range statuses {
		if s.Outcome == types.StatusFailed {
			exitCode = 1
		}
	}
	return exitCode
}
