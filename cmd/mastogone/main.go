package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"mastogone/internal/config"
	"mastogone/internal/filter"
	"mastogone/internal/mastoclient"
	"mastogone/internal/metrics"
	"mastogone/internal/model"
	"mastogone/internal/purge"
	"mastogone/internal/store"
)

const version = "0.1.0"

// Exit codes: 0 ok, 1 some deletions failed, 2 refused unsafe delete window,
// 3 file I/O error, 4 missing credential, 5 credential on the command line,
// 99 unexpected error.
const (
	exitOK              = 0
	exitDeleteFailures  = 1
	exitUnsafeWindow    = 2
	exitFileError       = 3
	exitNoCredential    = 4
	exitTokenOnCmdline  = 5
	exitUnexpectedError = 99
)

func main() {
	// Refuse a token anywhere on the command line before touching anything else.
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "--token") || strings.HasPrefix(arg, "-token") || arg == "-p" {
			fmt.Fprintln(os.Stderr, "Passing the token as an argument is disabled. Use the MASTOGONE_TOKEN environment variable or enter it when prompted.")
			os.Exit(exitTokenOnCmdline)
		}
	}

	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if os.Geteuid() == 0 {
		log.Warn().Msg("running as root is not recommended")
	}

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "scan":
		cmdScan()
	case "purge":
		cmdPurge()
	case "version":
		fmt.Println("mastogone", version)
	default:
		printHelp()
	}
}

func printHelp() {
	fmt.Println("mastogone", version, "- delete or preview Mastodon posts older than N days")
	fmt.Println("Usage: mastogone <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init     Write a default config file at ./mastogone.yaml")
	fmt.Println("  scan     Preview matching posts without deleting anything")
	fmt.Println("  purge    Preview, confirm, then delete matching posts")
	fmt.Println("  version  Print the version")
	fmt.Println()
	fmt.Println("The access token is read from MASTOGONE_TOKEN or prompted with echo off.")
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./mastogone.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	if err := config.Save(*path, config.Default()); err != nil {
		log.Error().Err(err).Msg("write config failed")
		os.Exit(exitFileError)
	}
	abs, _ := filepath.Abs(*path)
	fmt.Println("Config written to:", abs)
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// runFlags are the filter/output options shared by scan and purge.
type runFlags struct {
	cfgPath  string
	instance string
	days     int
	logFile  string
	backup   string
	match    multiFlag
	regex    bool
	after    string
	before   string
	replies  bool
	reblogs  bool
	batch    int
	verbose  bool
	quiet    bool
}

func bindRunFlags(fs *flag.FlagSet, rf *runFlags) {
	fs.StringVar(&rf.cfgPath, "config", "./mastogone.yaml", "config path")
	fs.StringVar(&rf.instance, "instance", "", "Mastodon instance URL (overrides config)")
	fs.IntVar(&rf.days, "days", -1, "act on statuses older than this many days")
	fs.StringVar(&rf.logFile, "log", "", "override log file name")
	fs.StringVar(&rf.backup, "backup", "", "override backup file name")
	fs.Var(&rf.match, "match", "keyword or regex to match (repeatable)")
	fs.BoolVar(&rf.regex, "regex", false, "interpret -match patterns as regex")
	fs.StringVar(&rf.after, "after", "", "only consider statuses after this date")
	fs.StringVar(&rf.before, "before", "", "only consider statuses before this date")
	fs.BoolVar(&rf.replies, "include-replies", false, "include replies")
	fs.BoolVar(&rf.reblogs, "include-reblogs", false, "include reblogs")
	fs.IntVar(&rf.batch, "delete-batch-size", 0, "deletes before a cooldown pause (overrides config)")
	fs.BoolVar(&rf.verbose, "v", false, "verbose (debug) logging")
	fs.BoolVar(&rf.quiet, "quiet", false, "suppress most output except errors")
}

// loadRun merges flags over the config file and resolves interactive inputs.
func loadRun(rf *runFlags) config.Config {
	switch {
	case rf.quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case rf.verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load(rf.cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Msg("config load failed")
			os.Exit(exitFileError)
		}
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	if rf.instance != "" {
		cfg.Instance.BaseURL = rf.instance
	}
	if cfg.Instance.BaseURL == "" {
		cfg.Instance.BaseURL = promptLine("Mastodon instance URL (e.g. https://mastodon.social): ")
	}
	if rf.days >= 0 {
		cfg.Filters.Days = rf.days
	} else if cfg.Filters.Days <= 0 {
		cfg.Filters.Days = promptInt("Act on statuses older than how many days?", 30)
	}
	if len(rf.match) > 0 {
		cfg.Filters.Match = rf.match
	}
	if rf.regex {
		cfg.Filters.Regex = true
	}
	if rf.after != "" {
		cfg.Filters.After = rf.after
	}
	if rf.before != "" {
		cfg.Filters.Before = rf.before
	}
	if rf.replies {
		cfg.Filters.IncludeReplies = true
	}
	if rf.reblogs {
		cfg.Filters.IncludeReblogs = true
	}
	if rf.logFile != "" {
		cfg.Files.Log = rf.logFile
	}
	if rf.backup != "" {
		cfg.Files.Backup = rf.backup
	}
	if rf.batch > 0 {
		cfg.Limits.DeleteBatchSize = rf.batch
	}

	if cfg.Credentials.AccessToken == "" {
		cfg.Credentials.AccessToken = promptToken()
	}
	if cfg.Credentials.AccessToken == "" {
		log.Error().Msg("no access token: set MASTOGONE_TOKEN or enter one when prompted")
		os.Exit(exitNoCredential)
	}
	return cfg
}

func promptLine(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func promptInt(prompt string, def int) int {
	s := promptLine(fmt.Sprintf("%s [%d]: ", prompt, def))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// promptToken reads the access token with terminal echo off.
func promptToken() string {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}
	fmt.Fprint(os.Stderr, "Access token: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func confirm(prompt string) bool {
	ans := promptLine(prompt + " [y/N]: ")
	return strings.EqualFold(ans, "y") || strings.EqualFold(ans, "yes")
}

// buildProcessor wires the client, rules, policy, and optional archive.
func buildProcessor(cfg config.Config, preview bool) (*purge.Processor, func(), error) {
	rules, err := filter.Compile(time.Now().UTC(), cfg.Filters)
	if err != nil {
		return nil, nil, err
	}
	logPath := cfg.Files.Log
	if logPath == "" {
		if preview {
			logPath = config.DefaultPreviewLog
		} else {
			logPath = config.DefaultDeleteLog
		}
	}
	backupPath := cfg.Files.Backup
	if backupPath == "" {
		backupPath = config.DefaultBackup
	}
	p := &purge.Processor{
		Client:     mastoclient.NewHTTPClient(cfg.Instance.BaseURL, cfg.Credentials.AccessToken),
		Rules:      rules,
		Policy:     purge.CooldownPolicy{BatchSize: cfg.Limits.DeleteBatchSize, Cooldown: time.Duration(cfg.Limits.CooldownMinutes) * time.Minute, Sleep: time.Sleep},
		Preview:    preview,
		PageSize:   cfg.Limits.PageSize,
		LogPath:    logPath,
		BackupPath: backupPath,
	}
	cleanup := func() {}
	if !preview && cfg.Storage.DBPath != "" {
		a, err := store.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, nil, err
		}
		p.Archive = a
		cleanup = func() { _ = a.Close() }
	}
	return p, cleanup, nil
}

func runOnce(cfg config.Config, preview bool) model.RunResult {
	p, cleanup, err := buildProcessor(cfg, preview)
	if err != nil {
		exitOnError(err)
	}
	defer cleanup()
	res, err := p.Run(context.Background())
	if err != nil {
		exitOnError(err)
	}
	return res
}

func exitOnError(err error) {
	var fe *purge.FileError
	if errors.As(err, &fe) || os.IsNotExist(err) || os.IsPermission(err) {
		log.Error().Err(err).Msg("file error")
		os.Exit(exitFileError)
	}
	log.Error().Err(err).Msg("unexpected error")
	os.Exit(exitUnexpectedError)
}

func cmdScan() {
	var rf runFlags
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	bindRunFlags(fs, &rf)
	_ = fs.Parse(os.Args[2:])
	cfg := loadRun(&rf)
	if cfg.Metrics.Addr != "" {
		metrics.StartServer(cfg.Metrics.Addr)
	}

	res := runOnce(cfg, true)
	printSummary(res, cfg, true)
}

func cmdPurge() {
	var rf runFlags
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	bindRunFlags(fs, &rf)
	_ = fs.Parse(os.Args[2:])
	cfg := loadRun(&rf)
	if cfg.Filters.Days < 1 {
		log.Error().Msg("refusing to delete statuses newer than 1 day; use -days 1 or higher")
		os.Exit(exitUnsafeWindow)
	}
	if cfg.Metrics.Addr != "" {
		metrics.StartServer(cfg.Metrics.Addr)
	}

	// Preview pass first, always. The delete pass re-scans, so new qualifying
	// posts appearing between the two passes are picked up too.
	res := runOnce(cfg, true)
	printSummary(res, cfg, true)
	if res.Matched == 0 {
		fmt.Println("No posts matched the criteria.")
		return
	}
	if !confirm("Proceed with deleting these posts and backing them up?") {
		fmt.Println("No posts were deleted.")
		return
	}

	del := runOnce(cfg, false)
	printSummary(del, cfg, false)
	if del.Failed > 0 {
		os.Exit(exitDeleteFailures)
	}
}

func printSummary(res model.RunResult, cfg config.Config, preview bool) {
	logPath := cfg.Files.Log
	if logPath == "" {
		if preview {
			logPath = config.DefaultPreviewLog
		} else {
			logPath = config.DefaultDeleteLog
		}
	}
	fmt.Println("── Summary ──────────────────────────")
	fmt.Printf(" Statuses scanned : %d\n", res.Scanned)
	fmt.Printf(" Statuses matched : %d\n", res.Matched)
	if !preview {
		fmt.Printf(" Statuses deleted : %d\n", res.Deleted)
		fmt.Printf(" Delete failures  : %d\n", res.Failed)
		backup := cfg.Files.Backup
		if backup == "" {
			backup = config.DefaultBackup
		}
		fmt.Printf(" Backup file      : %s\n", backup)
	}
	fmt.Printf(" Log file         : %s\n", logPath)
	fmt.Println("─────────────────────────────────────")
}
