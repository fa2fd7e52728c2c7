package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/browser"
	"github.com/diogo/chatwidget/internal/config"
)

// NewImportCookiesCmd creates the import-cookies command
func NewImportCookiesCmd(deps *Dependencies) *cobra.Command {
	var browserName string

	cmd := &cobra.Command{
		Use:   "import-cookies [path]",
		Short: "Import the chat site's cookies from a file or a browser",
		Long: `Import the chat site's cookies, including the anti-forgery token, and
save them to ~/.chatwidget/cookies.json.

The cookies file should contain either:
1. A list of objects: [{"name": "csrftoken", "value": "..."}]
2. A simple dictionary: {"csrftoken": "...", "sessionid": "..."}

With --browser the cookies are read from a local browser profile instead;
open the chat page in that browser first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := deps.orDefault()
			switch {
			case browserName != "" && len(args) > 0:
				return fmt.Errorf("pass either a file or --browser, not both")
			case browserName != "":
				cfg, err := resolveConfig()
				if err != nil {
					return err
				}
				return runImportBrowserCookies(cmd, d, cfg, browserName)
			case len(args) == 1:
				return runImportCookies(d, args[0])
			default:
				return fmt.Errorf("a cookies file or --browser is required")
			}
		},
	}

	cmd.Flags().StringVarP(&browserName, "browser", "b", "",
		"Read cookies from a browser (auto, chrome, firefox, edge, chromium, opera)")
	return cmd
}

func runImportCookies(d *Dependencies, sourcePath string) error {
	cookies, err := config.ImportCookies(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}

	cookiesPath, _ := config.GetCookiesPath()
	fmt.Fprintf(d.Stdout, "Imported %d cookies (%s) to %s\n", cookies.Len(), strings.Join(cookies.Names(), ", "), cookiesPath)
	return nil
}

func runImportBrowserCookies(cmd *cobra.Command, d *Dependencies, cfg config.Config, browserName string) error {
	b, err := browser.ParseBrowser(browserName)
	if err != nil {
		return err
	}

	result, err := d.Extractor.ExtractSiteCookies(cmd.Context(), b, cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to read cookies from %s: %w", b, err)
	}

	if err := config.SaveCookies(result.Cookies); err != nil {
		return err
	}

	cookiesPath, _ := config.GetCookiesPath()
	fmt.Fprintf(d.Stdout, "Imported %d cookies from %s to %s\n", result.Cookies.Len(), result.BrowserName, cookiesPath)
	return nil
}
