package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/restcheck/restcheck/packages/compare"
	"github.com/restcheck/restcheck/packages/core/config"
	"github.com/restcheck/restcheck/packages/core/env"
	"github.com/restcheck/restcheck/packages/core/parser"
	"github.com/restcheck/restcheck/packages/core/resolve"
	"github.com/restcheck/restcheck/packages/core/runner"
	"github.com/restcheck/restcheck/packages/history"
	"github.com/restcheck/restcheck/packages/metrics"
	"github.com/restcheck/restcheck/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run HTTP requests from restcheck template files",
	Long: `Run HTTP requests defined in .http template files and verify the
responses against their expected-response blocks.

Examples:
  restcheck run api.http
  restcheck run api.http --env staging
  restcheck run ./requests/ --concurrent --rps 20
  restcheck run api.http --bail 1 --strict
  restcheck run api.http --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	// SystemEnvPrefix marks OS environment variables exposed to templates
	SystemEnvPrefix = "RESTCHECK_VAR_"
)

var (
	envFlag         string
	configFlag      string
	verboseFlag     int
	quietFlag       bool
	noColorFlag     bool
	outputFlag      string
	outputFileFlag  string
	timeoutFlag     string
	bailFlag        int
	maxRequestsFlag int
	delayFlag       string
	concurrentFlag  bool
	rpsFlag         float64
	strictFlag      bool
	maxPassesFlag   int
	watchFlag       bool
	dryRunFlag      bool
	saveFlag        bool
	historyPathFlag string
	proxyFlag       string
	insecureFlag    bool
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("RESTCHECK_ENV", ""), "Environment to load variables from (env: RESTCHECK_ENV)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("RESTCHECK_CONFIG", ""), "Path to config file (env: RESTCHECK_CONFIG)")

	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all output except errors")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("RESTCHECK_NO_COLOR", false), "Disable colored output (env: RESTCHECK_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("RESTCHECK_OUTPUT", "console"), "Output format: console, json (env: RESTCHECK_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")

	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("RESTCHECK_TIMEOUT", ""), "Request timeout, e.g. 30s, 500ms (env: RESTCHECK_TIMEOUT)")
	runCmd.Flags().IntVar(&bailFlag, "bail", 0, "Stop scheduling after this many failures (0 = never)")
	runCmd.Flags().IntVar(&maxRequestsFlag, "max-requests", 0, "Cap the number of requests dispatched (0 = no cap)")
	runCmd.Flags().StringVar(&delayFlag, "delay", "", "Delay between sequential requests, e.g. 100ms")
	runCmd.Flags().BoolVarP(&concurrentFlag, "concurrent", "c", false, "Dispatch all requests concurrently")
	runCmd.Flags().Float64Var(&rpsFlag, "rps", 0, "Throttle concurrent launches to this many requests per second")

	runCmd.Flags().BoolVar(&strictFlag, "strict", false, "Fail on unresolved {{variables}} instead of leaving them verbatim")
	runCmd.Flags().IntVar(&maxPassesFlag, "max-passes", 0, "Cap for transitive variable interpolation passes")

	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Resolve and list what would run without executing")
	runCmd.Flags().BoolVar(&saveFlag, "save", false, "Persist the run to the history database")
	runCmd.Flags().StringVar(&historyPathFlag, "history", "", "Path to the history database")

	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("RESTCHECK_PROXY", ""), "Proxy URL for HTTP requests (env: RESTCHECK_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable TLS certificate validation")
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	var outWriter *os.File
	var err error
	if outputFileFlag != "" {
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}
	formatter := newFormatter(outWriter)

	files, err := collectFiles(args)
	if err != nil {
		formatter.FormatError(err)
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .http or .rest files found")
	}

	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		formatter.FormatError(err)
		os.Exit(ExitConfigError)
	}
	runnerCfg, resolverOpts, err := buildRunConfig(fileConfig, filepath.Dir(files[0]))
	if err != nil {
		formatter.FormatError(err)
		os.Exit(ExitConfigError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func(formatter output.Formatter) (failed int, err error) {
		sources := make([]*parser.Source, 0, len(files))
		for _, file := range files {
			src, err := parser.ParseFile(file)
			if err != nil {
				formatter.FormatError(err)
				return 0, fmt.Errorf("parsing failed")
			}
			sources = append(sources, src)
		}

		resolver := resolve.NewResolver(resolverOpts...)
		units, err := resolver.ResolveAll(sources)
		if err != nil {
			formatter.FormatError(err)
			return 0, err
		}

		if dryRunFlag {
			for _, u := range units {
				fmt.Fprintf(cmd.OutOrStdout(), "Would run: %s %s (%s[%d])\n",
					u.Request.Method, u.Request.URL, u.Source, u.Index)
			}
			return 0, nil
		}

		// Relative @schema paths resolve against the template's directory.
		comparator := compare.NewComparator(compare.WithBaseDir(filepath.Dir(files[0])))
		r := runner.NewRunner(runnerCfg, runner.WithComparator(comparator))
		run := r.Run(ctx, units, nil)

		formatter.FormatRun(run)
		if sf, ok := formatter.(output.SummaryFormatter); ok {
			sf.FormatSummary(metrics.FromResults(run.Results))
		}
		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(); err != nil {
				return run.Failed, fmt.Errorf("writing output: %w", err)
			}
		}

		if saveFlag {
			if err := saveRun(fileConfig, run); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to save run: %v\n", err)
			}
		}
		return run.Failed, nil
	}

	failed, err := runOnce(formatter)
	if err != nil {
		var unresolved *resolve.UnresolvedError
		if errors.As(err, &unresolved) {
			os.Exit(ExitConfigError)
		}
		os.Exit(ExitParseError)
	}

	if !watchFlag {
		if failed > 0 {
			os.Exit(ExitRequestFailure)
		}
		return nil
	}

	return watchLoop(ctx, cmd, files, args, runOnce)
}

func newFormatter(outWriter *os.File) output.Formatter {
	switch strings.ToLower(outputFlag) {
	case "json":
		opts := []output.JSONOption{}
		if outWriter != nil {
			opts = append(opts, output.JSONWithWriter(outWriter))
		}
		return output.NewJSONFormatter(opts...)
	default: // "console"
		opts := []output.ConsoleOption{
			output.WithVerbose(verboseFlag > 0),
			output.WithNoColor(noColorFlag || quietFlag),
		}
		if outWriter != nil {
			opts = append(opts, output.WithWriter(outWriter))
		}
		return output.NewConsoleFormatter(opts...)
	}
}

// buildRunConfig merges the config file with CLI overrides into the
// runner configuration and the resolver options.
func buildRunConfig(fileConfig *config.Config, baseDir string) (*runner.Config, []resolve.Option, error) {
	timeout := time.Duration(fileConfig.Timeout) * time.Millisecond
	if timeoutFlag != "" {
		parsed, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid timeout %q: %w (use format like 30s, 500ms)", timeoutFlag, err)
		}
		timeout = parsed
	}

	delay := time.Duration(fileConfig.DelayBetween) * time.Millisecond
	if delayFlag != "" {
		parsed, err := time.ParseDuration(delayFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid delay %q: %w", delayFlag, err)
		}
		delay = parsed
	}

	strategy := runner.Strategy(fileConfig.Strategy)
	if concurrentFlag {
		strategy = runner.Concurrent
	}

	bail := fileConfig.Bail
	if bailFlag > 0 {
		bail = bailFlag
	}
	maxRequests := fileConfig.MaxRequests
	if maxRequestsFlag > 0 {
		maxRequests = maxRequestsFlag
	}
	rps := fileConfig.RequestsPerSecond
	if rpsFlag > 0 {
		rps = rpsFlag
	}
	proxy := fileConfig.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}
	validateSSL := fileConfig.GetValidateSSL()
	if insecureFlag {
		validateSSL = false
	}

	cfg := &runner.Config{
		Timeout:           timeout,
		DefaultHeaders:    fileConfig.DefaultHeaders,
		Bail:              bail,
		MaxRequests:       maxRequests,
		Delay:             delay,
		Strategy:          strategy,
		RequestsPerSecond: rps,
		FollowRedirects:   fileConfig.GetFollowRedirects(),
		ValidateSSL:       validateSSL,
		Proxy:             proxy,
	}

	envName := envFlag
	if envName == "" {
		envName = fileConfig.DefaultEnvironment
	}
	environment, err := env.LoadEnvironment(baseDir, envName)
	if err != nil {
		return nil, nil, err
	}
	baseScope := env.MergeVariables(environment.Variables, env.LoadSystemEnv(SystemEnvPrefix))

	resolverOpts := []resolve.Option{
		resolve.WithBaseScope(baseScope),
		resolve.WithStrict(strictFlag || fileConfig.GetStrict()),
	}
	maxPasses := fileConfig.MaxPasses
	if maxPassesFlag > 0 {
		maxPasses = maxPassesFlag
	}
	if maxPasses > 0 {
		resolverOpts = append(resolverOpts, resolve.WithMaxPasses(maxPasses))
	}

	return cfg, resolverOpts, nil
}

func saveRun(fileConfig *config.Config, run *runner.RunResult) error {
	path := historyPathFlag
	if path == "" {
		path = fileConfig.HistoryPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(run)
}

func watchLoop(ctx context.Context, cmd *cobra.Command, files, args []string, runOnce func(output.Formatter) (int, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) && isTemplateFile(event.Name) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n", event.Name)
					// JSON output needs fresh accumulator state per run.
					_, _ = runOnce(newFormatter(nil))
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isTemplateFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isTemplateFile(arg) {
			files = append(files, arg)
		}
	}
	return files, nil
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".http", ".rest":
		return true
	default:
		return false
	}
}
