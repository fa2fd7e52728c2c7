package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/api"
	"github.com/diogo/chatwidget/internal/browser"
	"github.com/diogo/chatwidget/internal/chat"
	"github.com/diogo/chatwidget/internal/config"
	apierrors "github.com/diogo/chatwidget/internal/errors"
)

var (
	// Global flags
	baseURLFlag        string
	browserCookiesFlag string
	logFileFlag        string
	themeFlag          string
	verboseFlag        bool
	rawFlag            bool
)

// resolveConfig loads config.json and the environment, then applies flags
func resolveConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if themeFlag != "" {
		cfg.TUITheme = themeFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	if rawFlag {
		cfg.RawOutput = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger opens the log file. The widget owns the terminal, so nothing
// is logged to stdout or stderr.
func newLogger(cfg config.Config) (*log.Logger, func(), error) {
	path := logFileFlag
	if path == "" {
		if _, err := config.EnsureConfigDir(); err != nil {
			return nil, nil, err
		}
		var err error
		if path, err = config.GetLogPath(); err != nil {
			return nil, nil, err
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		Prefix:          "chatwidget",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	return logger, func() { _ = f.Close() }, nil
}

// loggerOrDiscard is newLogger that degrades to a silent logger, so a
// read-only home directory never prevents chatting
func loggerOrDiscard(cfg config.Config, stderr io.Writer) (*log.Logger, func()) {
	logger, closeFn, err := newLogger(cfg)
	if err != nil {
		if cfg.Verbose {
			fmt.Fprintf(stderr, "[verbose] logging disabled: %v\n", err)
		}
		return log.New(io.Discard), func() {}
	}
	return logger, closeFn
}

// connect builds the HTTP client, seeds it with the site cookies and, when
// no anti-forgery cookie is known yet, fetches the chat page to obtain one
func (d *Dependencies) connect(ctx context.Context, cfg config.Config, logger *log.Logger) (chat.Sender, func(), error) {
	client, err := api.NewClientFromConfig(cfg, api.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	cookies, source, err := d.siteCookies(ctx, cfg)
	switch {
	case err != nil:
		logger.Warn("could not load site cookies", "source", source, "err", err)
	case cookies != nil:
		client.SeedCookies(cookies)
		logger.Debug("site cookies loaded", "source", source, "count", cookies.Len())
	}

	if client.CSRFToken() == "" {
		if err := client.Prime(ctx); err != nil {
			logger.Warn("could not fetch anti-forgery cookie", "url", client.BaseURL(), "err", err)
		}
	}

	return client, client.Close, nil
}

// siteCookies returns the cookies to seed the client with: the browser's
// when --browser-cookies is set, otherwise the saved cookies file. A
// missing cookies file is not an error.
func (d *Dependencies) siteCookies(ctx context.Context, cfg config.Config) (*config.Cookies, string, error) {
	if browserCookiesFlag != "" {
		b, err := browser.ParseBrowser(browserCookiesFlag)
		if err != nil {
			return nil, browserCookiesFlag, err
		}
		result, err := d.Extractor.ExtractSiteCookies(ctx, b, cfg.BaseURL)
		if err != nil {
			return nil, b.String(), err
		}
		return result.Cookies, result.BrowserName, nil
	}

	cookies, err := config.LoadCookies()
	if errors.Is(err, apierrors.ErrNoCookies) {
		return nil, "cookies.json", nil
	}
	return cookies, "cookies.json", err
}

// addGlobalFlags registers the flags shared by every command
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&baseURLFlag, "base-url", "", "Chat server URL (default from config, e.g. http://127.0.0.1:8000)")
	flags.StringVar(&browserCookiesFlag, "browser-cookies", "",
		"Read the site's cookies from a browser (auto, chrome, firefox, edge, chromium, opera)")
	flags.StringVar(&logFileFlag, "log-file", "", "Write logs to this file instead of ~/.chatwidget/chatwidget.log")
	flags.StringVar(&themeFlag, "theme", "", "Color theme (tokyonight, catppuccin, nord, dracula)")
	flags.BoolVar(&verboseFlag, "verbose", false, "Log requests at debug level")
	flags.BoolVar(&rawFlag, "raw", false, "Show replies without stripping terminal escape sequences")
}
