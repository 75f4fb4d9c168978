package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/derekprior/rrsched/internal/config"
	"github.com/derekprior/rrsched/internal/csvexport"
	"github.com/derekprior/rrsched/internal/excel"
	"github.com/derekprior/rrsched/internal/roundrobin"
	"github.com/derekprior/rrsched/internal/schedule"
	"github.com/derekprior/rrsched/internal/server"
	"github.com/derekprior/rrsched/internal/strategy"
	"github.com/derekprior/rrsched/internal/validator"
)

const (
	defaultConfigFile = "config.yaml"
	defaultAddr       = ":8080"
	defaultTimeout    = 30 * time.Second
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.InfoLevel)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "rrsched",
		Short: "Round-robin tournament schedule generator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log = log.Level(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var outputFile, csvDir string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), configPath, outputFile, csvDir)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().StringVar(&csvDir, "csv-dir", "", "Also write one CSV fixture list per tournament into this directory")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule against the config",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	var addr string
	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve schedules over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, cmd.Flags().Changed("addr"))
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address (default from RRSCHED_ADDR)")

	scheduleCmd.AddCommand(generateCmd, validateCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Round-Robin Tournament Configuration
# ====================================
# Every tournament listed below gets a single round-robin schedule: each
# participant meets every other participant exactly once.

# Season controls the dates printed next to each round. It is optional;
# without a start_date rounds are numbered but undated.
season:
  start_date: "2026-09-05"

  # Days between consecutive rounds.
  round_interval_days: 7

  # A round that would fall on a blackout date moves to the next free day
  # and later rounds keep their spacing from it.
  blackout_dates:
    - date: "2026-10-10"
      reason: "Club closed"

# How participants are numbered before scheduling. Participant order decides
# who is paired first, so a different order gives a different schedule.
#   as_listed     keep the order below (default)
#   alphabetical  sort names first
ordering: as_listed

# Tournaments and their participants. Names must be unique within a
# tournament. Each participant hosts its home fixtures at its own venue.
#
# The scheduler pairs participants round by round and keeps every
# participant's home and away counts close. Odd-sized tournaments and some
# larger even sizes have no schedule under that rule; those tournaments are
# reported as failed and the rest are still written.
tournaments:
  - name: Open
    participants: [Ajax, Benfica, Celtic, Dynamo, Everton, Feyenoord]
  - name: Reserves
    participants: [Ajax II, Benfica II, Celtic II, Dynamo II]
`

func runGenerate(ctx context.Context, configPath, outputPath, csvDir string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	strat, err := strategy.Get(cfg.Ordering)
	if err != nil {
		return err
	}

	fmt.Printf("Scheduling %d tournaments...\n", len(cfg.Tournaments))

	var progress func(*schedule.Result)
	if len(cfg.Tournaments) > 1 {
		bar := progressbar.NewOptions(len(cfg.Tournaments),
			progressbar.OptionSetDescription(color.CyanString("Scheduling")),
			progressbar.OptionSetWidth(40),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionSetRenderBlankState(true),
		)
		progress = func(r *schedule.Result) {
			log.Debug().Str("tournament", r.Tournament).Err(r.Err).Msg("tournament finished")
			bar.Add(1)
		}
	}

	start := time.Now()
	results, schedErr := schedule.Schedule(ctx, cfg, strat, progress)
	if results == nil {
		return schedErr
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("scheduling finished")

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", color.YellowString("⚠"), r.Tournament, r.Err)
			continue
		}
		fmt.Printf("%s %s: %d rounds\n", color.GreenString("✓"), r.Tournament, len(r.Rounds))
		printBalance(r)
	}

	if failed == len(results) {
		return fmt.Errorf("no tournament could be scheduled")
	}

	f, err := excel.Generate(results)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)

	if csvDir != "" {
		paths, err := writeCSVs(csvDir, results)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("✓ Fixtures saved to %s\n", p)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tournaments could not be scheduled", failed, len(results))
	}
	return nil
}

func printBalance(r *schedule.Result) {
	n := len(r.Participants)
	if n%2 == 1 {
		n++
	}
	limit := roundrobin.MaxImbalance(n)

	fmt.Printf("  %-20s %4s %4s\n", "Participant", "Home", "Away")
	for _, s := range r.Standings {
		marker := color.GreenString("✓")
		if unbalanced(s, limit) {
			marker = color.YellowString("⚠")
		}
		fmt.Printf("  %-20s %4d %4d %s\n", s.Participant, s.Home, s.Away, marker)
	}
}

// unbalanced reports whether a final home/away split is outside what the
// engine can produce. The engine checks the bound before each assignment,
// so a final difference equal to limit is still valid.
func unbalanced(s schedule.Standing, limit int) bool {
	diff := s.Home - s.Away
	if diff < 0 {
		diff = -diff
	}
	return diff > limit
}

// writeCSVs writes one fixture list per scheduled tournament and returns the
// paths written.
func writeCSVs(dir string, results []*schedule.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var paths []string
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		path := filepath.Join(dir, csvFilename(r.Tournament))
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("creating %s: %w", path, err)
		}
		err = csvexport.Write(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func csvFilename(tournament string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, tournament)
	if name == "" {
		return csvexport.DefaultFilename
	}
	return name + ".csv"
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("%s Rule violation: %s\n", color.RedString("✗"), v.Message)
		case "warning":
			warnings++
			fmt.Printf("%s Balance warning: %s\n", color.YellowString("⚠"), v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d balance warnings\n", errors, warnings)

	// Recompute the balance sheet from the edited fixtures
	if err := excel.UpdateBalanceSheet(schedulePath); err != nil {
		return fmt.Errorf("updating balance sheet: %w", err)
	}
	fmt.Printf("✓ Balance sheet updated in %s\n", schedulePath)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

// serveSettings resolves the listen address, request timeout, participant
// cap and CORS origins from the environment. An explicit --addr wins over RRSCHED_ADDR.
func serveSettings(addrFlag string, addrSet bool) (string, server.Options, error) {
	addr := addrFlag
	if env := os.Getenv("RRSCHED_ADDR"); env != "" && !addrSet {
		addr = env
	}

	opts := server.Options{Timeout: defaultTimeout}
	if env := os.Getenv("RRSCHED_TIMEOUT"); env != "" {
		d, err := time.ParseDuration(env)
		if err != nil {
			return "", opts, fmt.Errorf("RRSCHED_TIMEOUT: %w", err)
		}
		if d < 0 {
			return "", opts, fmt.Errorf("RRSCHED_TIMEOUT must not be negative, got %s", env)
		}
		opts.Timeout = d
	}
	if env := os.Getenv("RRSCHED_MAX_PARTICIPANTS"); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil || n < 2 {
			return "", opts, fmt.Errorf("RRSCHED_MAX_PARTICIPANTS must be a number of at least 2, got %q", env)
		}
		opts.MaxParticipants = n
	}
	if env := os.Getenv("RRSCHED_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				opts.AllowedOrigins = append(opts.AllowedOrigins, origin)
			}
		}
	}
	return addr, opts, nil
}

func runServe(ctx context.Context, addrFlag string, addrSet bool) error {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	addr, opts, err := serveSettings(addrFlag, addrSet)
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(log.GetLevel())
	logger.Info().Dur("timeout", opts.Timeout).Int("max_participants", opts.MaxParticipants).Strs("cors_origins", opts.AllowedOrigins).Msg("starting server")
	return server.New(logger, opts).ListenAndServe(ctx, addr)
}
