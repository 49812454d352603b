// Package main is the CLI entry point for frickd.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/frickd/internal/config"
	"github.com/eliteGoblin/frickd/internal/daemon"
	"github.com/eliteGoblin/frickd/internal/domain"
	"github.com/eliteGoblin/frickd/internal/infra"
	"github.com/eliteGoblin/frickd/internal/ledger"
	"github.com/eliteGoblin/frickd/internal/policy"
	"github.com/eliteGoblin/frickd/internal/profile"
	"github.com/eliteGoblin/frickd/internal/timefmt"
	"github.com/eliteGoblin/frickd/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "frickd",
	Short: "Tag-gated focus blocker",
	Long: `frickd shields a configurable set of applications behind a physical tag:
scan the tag to start blocking, scan it again to stop. Blocked time is
tracked per session and per calendar day.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the blocking daemon",
	Long: `Runs the daemon loop: waits for tag scans, toggles the blocking state,
and re-enforces the shield while blocking is active.`,
	RunE: runRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show blocking state, session and daily totals",
	RunE:  runStatus,
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's accumulated blocked time",
	RunE:  runToday,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle blocking as if the tag had been scanned",
	Long: `Feeds the configured tag phrase to the engine directly. Useful on hosts
without a tag reader; the same authorization and state rules apply.`,
	RunE: runToggle,
}

var writeTagCmd = &cobra.Command{
	Use:   "write-tag",
	Short: "Provision a physical tag with the secret phrase",
	RunE:  runWriteTag,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage blocking profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE:  runProfileList,
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a profile",
	RunE:  runProfileAdd,
}

var profileRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileRm,
}

var profileUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the active profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileRename,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	addName       string
	addIcon       string
	addApps       []string
	addCategories []string
	jsonOutput    bool
)

func init() {
	profileAddCmd.Flags().StringVar(&addName, "name", "", "Profile name (required)")
	profileAddCmd.Flags().StringVar(&addIcon, "icon", "", "Profile icon glyph")
	profileAddCmd.Flags().StringSliceVar(&addApps, "apps", nil, "App identifiers to block")
	profileAddCmd.Flags().StringSliceVar(&addCategories, "categories", nil, "Category identifiers to block")
	_ = profileAddCmd.MarkFlagRequired("name")

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRmCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileRenameCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(writeTagCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)
}

// core bundles everything a command needs.
type core struct {
	cfg    config.Config
	logger *zap.Logger
	state  *infra.StateDB
	engine *usecase.Engine
	tags   *infra.SpoolTagReader
}

func (c *core) close() {
	_ = c.state.Close()
	_ = c.logger.Sync()
}

func buildCore(logger *zap.Logger) (*core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	key, err := infra.EnsureKey(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	state, err := infra.NewStateDB(cfg.DataDir, key)
	if err != nil {
		return nil, err
	}

	profiles, err := profile.NewStore(state, logger)
	if err != nil {
		state.Close()
		return nil, err
	}

	tags, err := infra.NewSpoolTagReader(cfg.SpoolDir, logger)
	if err != nil {
		state.Close()
		return nil, err
	}

	shield := infra.NewProcessShield(policy.NewRegistry(), logger)
	gate := usecase.NewAuthGate(infra.NewUnixAuthorizer(logger), logger)
	tracker := usecase.NewTracker(ledger.New(state))

	engine, err := usecase.NewEngine(usecase.EngineDeps{
		State:     state,
		Profiles:  profiles,
		Tracker:   tracker,
		Gate:      gate,
		Shield:    shield,
		Tags:      tags,
		TagPhrase: cfg.TagPhrase,
		Logger:    logger,
	}, time.Now())
	if err != nil {
		state.Close()
		return nil, err
	}

	return &core{cfg: cfg, logger: logger, state: state, engine: engine, tags: tags}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := createLogger(cfg.LogPath)

	c, err := buildCore(logger)
	if err != nil {
		return err
	}
	defer c.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	runnerCfg := daemon.DefaultConfig()
	runnerCfg.EnforcementInterval = c.cfg.EnforceInterval

	runner := daemon.NewRunner(runnerCfg, c.engine, c.tags, logger)
	return runner.Run(ctx)
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	now := time.Now()
	p := c.engine.CurrentProfile()
	today, err := c.engine.TodayTotal(now)
	if err != nil {
		return err
	}

	fmt.Println("=== frickd status ===")
	if c.engine.IsBlocking() {
		fmt.Println("State:    BLOCKING")
		fmt.Printf("Session:  %s\n", timefmt.Clock(c.engine.ElapsedSession(now)))
	} else {
		fmt.Println("State:    idle")
	}
	fmt.Printf("Profile:  %s %s\n", p.Icon, p.Name)
	fmt.Printf("Today:    %s (%.0f%% of %s goal)\n",
		timefmt.Clock(today), 100*timefmt.GoalProgress(today), timefmt.Clock(timefmt.DailyGoal))
	state, reason := c.engine.Authorization()
	fmt.Printf("Auth:     %s\n", state)
	if reason != "" {
		fmt.Printf("          %s\n", reason)
	}
	return nil
}

func runToday(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	today, err := c.engine.TodayTotal(time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("%s of %s daily goal\n", timefmt.Clock(today), timefmt.Clock(timefmt.DailyGoal))
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The toggle path still goes through the authorization gate.
	c.engine.RequestAuthorization(ctx)

	phrase := c.cfg.TagPhrase
	if phrase == "" {
		phrase = usecase.DefaultTagPhrase
	}

	res, err := c.engine.HandleTag(time.Now(), phrase)
	switch {
	case err == nil:
		if res.Blocking {
			fmt.Println("Blocking started.")
		} else {
			fmt.Printf("Blocking stopped. Session: %s\n", timefmt.Clock(res.Session))
		}
	case errors.Is(err, domain.ErrUnauthorized):
		_, reason := c.engine.Authorization()
		return fmt.Errorf("not authorized: %s", reason)
	case errors.Is(err, domain.ErrShieldApply):
		fmt.Printf("State toggled (blocking=%v) but the shield could not be applied: %v\n", res.Blocking, err)
		fmt.Println("The daemon will retry, or re-run this command.")
	default:
		return err
	}
	return nil
}

func runWriteTag(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.engine.WriteTag(ctx); err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	fmt.Println("Tag created successfully.")
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	currentID := c.engine.CurrentProfile().ID
	for _, p := range c.engine.Profiles() {
		marker := " "
		if p.ID == currentID {
			marker = "*"
		}
		fmt.Printf("%s %s %s  %s  (%d apps, %d categories)\n",
			marker, p.Icon, p.Name, p.ID, len(p.BlockedApps), len(p.BlockedCategories))
	}
	return nil
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	apps := make([]domain.AppID, 0, len(addApps))
	for _, a := range addApps {
		apps = append(apps, domain.AppID(strings.TrimSpace(a)))
	}
	categories := make([]domain.CategoryID, 0, len(addCategories))
	for _, cat := range addCategories {
		categories = append(categories, domain.CategoryID(strings.TrimSpace(cat)))
	}

	p, err := c.engine.AddProfile(addName, addIcon, apps, categories)
	if err != nil {
		return err
	}
	fmt.Printf("Added profile %s %s (%s)\n", p.Icon, p.Name, p.ID)
	return nil
}

func runProfileRm(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.engine.DeleteProfile(args[0]); err != nil {
		return err
	}
	fmt.Println("Profile deleted.")
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.engine.SelectProfile(args[0]); err != nil {
		return err
	}
	p := c.engine.CurrentProfile()
	fmt.Printf("Active profile: %s %s\n", p.Icon, p.Name)
	return nil
}

func runProfileRename(cmd *cobra.Command, args []string) error {
	c, err := buildCore(quietLogger())
	if err != nil {
		return err
	}
	defer c.close()

	name := args[1]
	p, err := c.engine.UpdateProfile(args[0], profile.Update{Name: &name})
	if err != nil {
		return err
	}
	fmt.Printf("Renamed to %s\n", p.Name)
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
		return
	}
	fmt.Printf("frickd %s (commit %s, built %s)\n", Version, Commit, BuildTime)
}

// createLogger builds the daemon logger. Logs go to the configured file,
// falling back to stderr.
func createLogger(logPath string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if logPath != "" {
		cfg.OutputPaths = []string{logPath}
		cfg.ErrorOutputPaths = []string{logPath}
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// quietLogger keeps one-shot commands from spamming structured logs;
// warnings and errors still surface.
func quietLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
