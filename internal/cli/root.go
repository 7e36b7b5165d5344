// Package cli is the helpdesk command-line console. Commands call the same
// services as the BFF and print notices raised along the way.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/auth"
	"github.com/spec-kit/helpdesk-console/internal/clock"
	"github.com/spec-kit/helpdesk-console/internal/config"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/events"
	"github.com/spec-kit/helpdesk-console/internal/observability"
	"github.com/spec-kit/helpdesk-console/internal/output"
	"github.com/spec-kit/helpdesk-console/internal/query"
	"github.com/spec-kit/helpdesk-console/internal/service"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui  *output.UI
	con *console

	verbose      bool
	buildVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Helpdesk console - work tickets from the terminal",
	Long: `helpdesk talks to the helpdesk backend on behalf of an agent.
It lists and searches tickets, drives the ticket workflow, shows the
queue board, the weekly timeline and the analytics dashboard.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(ui.Out, buildVersion)
	},
}

// Execute is the main entry point called from main.go.
func Execute(version string) {
	buildVersion = version
	if err := rootCmd.Execute(); err != nil {
		if ui == nil {
			ui = output.New()
		}
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/helpdesk/config.yaml)")
	rootCmd.PersistentFlags().String("token", "", "Session token (env HELPDESK_TOKEN)")
	rootCmd.PersistentFlags().String("backend", "", "Backend base URL (env HELPDESK_BACKEND_BASE_URL)")
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("backend.base_url", rootCmd.PersistentFlags().Lookup("backend"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "helpdesk"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HELPDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	setDefaults(cfg)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults seeds viper from the service configuration so the CLI and
// the BFF agree when no CLI-specific value is set.
func setDefaults(cfg *config.Config) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	viper.SetDefault("token", "")
	viper.SetDefault("backend.base_url", cfg.Backend.BaseURL)
	viper.SetDefault("backend.timeout_seconds", cfg.Backend.TimeoutSeconds)
	viper.SetDefault("backend.user_agent", "helpdesk-cli/"+buildVersion)
	viper.SetDefault("cache.ttl_seconds", cfg.Cache.TTLSeconds)
	viper.SetDefault("search.debounce_millis", cfg.Search.DebounceMillis)
	viper.SetDefault("search.page_size", cfg.Search.PageSize)
	viper.SetDefault("notices.feed_size", cfg.Notices.FeedSize)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	// Services are built lazily so help and version run without a token.
}

// console holds the services one CLI invocation uses.
type console struct {
	sess          *domain.Session
	logger        *zap.Logger
	search        config.SearchConfig
	tickets       *service.TicketService
	boards        *service.BoardService
	timelines     *service.TimelineService
	analytics     *service.AnalyticsService
	queues        *service.QueueService
	categories    *service.CategoryService
	users         *service.UserService
	notifications *service.NotificationService
	notices       *service.NoticeService
}

// getConsole returns the shared console, building it on first call.
func getConsole() (*console, error) {
	if con != nil {
		return con, nil
	}

	token := strings.TrimSpace(viper.GetString("token"))
	if token == "" {
		return nil, fmt.Errorf("no session token: pass --token or set HELPDESK_TOKEN")
	}
	sess, err := auth.SessionFromTokenUnverified(token)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	backendURL := viper.GetString("backend.base_url")
	if backendURL == "" {
		return nil, fmt.Errorf("no backend: pass --backend or set HELPDESK_BACKEND_BASE_URL")
	}

	logger := observability.NewConsoleLogger(verbose)
	api := apiclient.New(config.BackendConfig{
		BaseURL:        backendURL,
		TimeoutSeconds: viper.GetInt("backend.timeout_seconds"),
		UserAgent:      viper.GetString("backend.user_agent"),
	}, nil, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notices := service.NewNoticeService(dispatcher, events.NewNoticeFeed(viper.GetInt("notices.feed_size")), logger, clock.Real())
	notices.RegisterHandlers()

	ttl := config.CacheConfig{TTLSeconds: viper.GetInt("cache.ttl_seconds")}.TTL()
	deps := service.Dependencies{
		API:        api,
		Cache:      query.NewClient(query.NewMemoryStore(clock.Real()), ttl, logger),
		Dispatcher: dispatcher,
		Notices:    notices,
		Clock:      clock.Real(),
		Logger:     logger,
	}
	tickets := service.NewTicketService(deps)

	ui.VerboseLog("session %s (%s) against %s", sess.UserID, sess.Role, backendURL)
	con = &console{
		sess:   sess,
		logger: logger,
		search: config.SearchConfig{
			DebounceMillis: viper.GetInt("search.debounce_millis"),
			PageSize:       viper.GetInt("search.page_size"),
		},
		tickets:       tickets,
		boards:        service.NewBoardService(deps, tickets),
		timelines:     service.NewTimelineService(deps, tickets),
		analytics:     service.NewAnalyticsService(deps),
		queues:        service.NewQueueService(deps),
		categories:    service.NewCategoryService(deps),
		users:         service.NewUserService(deps),
		notifications: service.NewNotificationService(deps),
		notices:       notices,
	}
	return con, nil
}

func (c *console) pageSize() int {
	if c.search.PageSize <= 0 {
		return 20
	}
	return c.search.PageSize
}

// flushNotices prints the notices raised during the command.
func (c *console) flushNotices() {
	for _, n := range c.notices.Drain(c.sess.UserID) {
		ui.Notice(n)
	}
}

// explain prints what a failed workflow call needs from the user and
// returns err unchanged.
func explain(err error) error {
	if err == nil {
		return nil
	}
	if prompt := service.PromptOf(err); prompt != nil {
		switch prompt.Kind {
		case workflow.PromptAssignee:
			ui.Warning("Ticket %s needs an assignee to move to %s; rerun with --assignee <user-id>", prompt.TicketID, prompt.Target)
			if len(prompt.Candidates) > 0 {
				table := ui.Table([]string{"USER", "NAME", "EMAIL"})
				for _, u := range prompt.Candidates {
					_ = table.Append([]string{u.ID, u.Name, u.Email})
				}
				_ = table.Render()
			}
		case workflow.PromptClosingNotes:
			ui.Warning("Ticket %s needs closing notes to move to %s; rerun with --notes <text>", prompt.TicketID, prompt.Target)
			if prompt.PrefillNotes != "" {
				ui.Info("Previous notes: %s", prompt.PrefillNotes)
			}
		}
		return err
	}
	if de := apperrors.ToDomainError(err); de.Code == apperrors.CodePartialFailure {
		if completed, ok := de.Details["completed"].([]string); ok && len(completed) > 0 {
			ui.Warning("Completed before the failure: %s", strings.Join(completed, ", "))
		}
	}
	return err
}
