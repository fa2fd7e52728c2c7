package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/diogo/chatwidget/internal/browser"
	"github.com/diogo/chatwidget/internal/chat"
	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/tui"
)

type fakeSender struct {
	reply string
	err   error
	sent  []string
}

func (f *fakeSender) SendMessage(ctx context.Context, text string) (string, error) {
	f.sent = append(f.sent, text)
	return f.reply, f.err
}

type fakeExtractor struct {
	result *browser.ExtractResult
	err    error
	host   string
}

func (f *fakeExtractor) ExtractSiteCookies(ctx context.Context, b browser.SupportedBrowser, host string) (*browser.ExtractResult, error) {
	f.host = host
	return f.result, f.err
}

type testEnv struct {
	deps    *Dependencies
	sender  *fakeSender
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	tuiOpts *tui.Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	env := &testEnv{
		sender: &fakeSender{reply: "Hi"},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.deps = &Dependencies{
		NewSender: func(ctx context.Context, cfg config.Config, logger *log.Logger) (chat.Sender, func(), error) {
			return env.sender, func() {}, nil
		},
		RunTUI: func(ctx context.Context, sender chat.Sender, opts tui.Options) error {
			env.tuiOpts = &opts
			return nil
		},
		Extractor:  &fakeExtractor{err: errors.New("no browser")},
		Stdin:      strings.NewReader(""),
		Stdout:     env.stdout,
		Stderr:     env.stderr,
		IsTerminal: func(any) bool { return false },
	}
	return env
}

func (e *testEnv) run(args ...string) error {
	root := NewRootCmd(e.deps)
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	return root.ExecuteContext(context.Background())
}

func TestSendCmd_PrintsReply(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("send", "  hello  "); err != nil {
		t.Fatalf("send error = %v", err)
	}
	if got := env.stdout.String(); got != "Hi\n" {
		t.Errorf("stdout = %q, want %q", got, "Hi\n")
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0] != "hello" {
		t.Errorf("sent = %v", env.sender.sent)
	}
}

func TestSendCmd_Stdin(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Stdin = strings.NewReader("line one\nline two\n")

	if err := env.run("send"); err != nil {
		t.Fatalf("send error = %v", err)
	}
	if env.sender.sent[0] != "line one\nline two" {
		t.Errorf("sent = %q", env.sender.sent[0])
	}
}

func TestSendCmd_NoInputOnTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.deps.IsTerminal = func(v any) bool { return v == env.deps.Stdin }

	if err := env.run("send"); err == nil || !strings.Contains(err.Error(), "no message") {
		t.Errorf("send error = %v, want missing message", err)
	}
}

func TestSendCmd_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		err        error
		wantOut    string
		wantFailed bool
	}{
		{name: "reply", reply: "Hello", wantOut: "Hello\n"},
		{name: "no reply", reply: "", wantOut: models.FallbackReply + "\n"},
		{name: "failure", err: errors.New("connection refused"), wantOut: models.ErrorReply + "\n", wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.sender.reply, env.sender.err = tt.reply, tt.err

			err := env.run("send", "question")
			if (err != nil) != tt.wantFailed {
				t.Errorf("send error = %v, wantFailed %v", err, tt.wantFailed)
			}
			if got := env.stdout.String(); got != tt.wantOut {
				t.Errorf("stdout = %q, want %q", got, tt.wantOut)
			}
		})
	}
}

func TestSendCmd_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("send", "   "); err == nil {
		t.Error("send with blank message should fail")
	}
	if len(env.sender.sent) != 0 {
		t.Error("blank message must not be sent")
	}
}

func TestSendCmd_SanitizesUnlessRaw(t *testing.T) {
	env := newTestEnv(t)
	env.sender.reply = "\x1b[31mred\x1b[0m"

	if err := env.run("send", "q"); err != nil {
		t.Fatal(err)
	}
	if got := env.stdout.String(); got != "red\n" {
		t.Errorf("stdout = %q, want escapes stripped", got)
	}

	env.stdout.Reset()
	if err := env.run("--raw", "send", "q"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.stdout.String(), "\x1b[31m") {
		t.Errorf("stdout = %q, want raw escapes", env.stdout.String())
	}
}

func TestSendCmd_BubblesOnTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.deps.IsTerminal = func(v any) bool { return v == env.deps.Stdout }

	if err := env.run("send", "hello"); err != nil {
		t.Fatal(err)
	}
	out := env.stdout.String()
	for _, want := range []string{"You", "hello", "Assistant", "Hi"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "hello") > strings.Index(out, "Hi") {
		t.Error("user bubble should be printed before the reply")
	}
}

func TestLineSurface_Typing(t *testing.T) {
	s := &lineSurface{out: io.Discard}
	if s.HideTyping() {
		t.Error("HideTyping() without a placeholder should report false")
	}
	s.ShowTyping()
	s.ShowTyping()
	if !s.HideTyping() || s.HideTyping() {
		t.Error("placeholder should be removed exactly once")
	}
}

func TestChatCmd_RunsWidget(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("--theme", "nord", "--base-url", "https://chat.example.com"); err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if env.tuiOpts == nil {
		t.Fatal("widget was not started")
	}
	if env.tuiOpts.Title != "https://chat.example.com/get_chatbot_response/" {
		t.Errorf("Title = %q", env.tuiOpts.Title)
	}
	if env.tuiOpts.Theme.Name != "nord" {
		t.Errorf("Theme = %q, want nord", env.tuiOpts.Theme.Name)
	}
	if env.tuiOpts.MaxInputRows != models.DefaultInputMaxRows {
		t.Errorf("MaxInputRows = %d", env.tuiOpts.MaxInputRows)
	}
}

func TestChatCmd_SenderError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.NewSender = func(context.Context, config.Config, *log.Logger) (chat.Sender, func(), error) {
		return nil, nil, errors.New("bad base url")
	}

	if err := env.run("chat"); err == nil {
		t.Error("chat should fail when the client cannot be built")
	}
	if env.tuiOpts != nil {
		t.Error("widget must not start without a sender")
	}
}

func TestChatCmd_InvalidConfig(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("chat", "--base-url", "localhost:8000"); err == nil {
		t.Error("chat should reject a base URL without scheme")
	}
}

func TestVersionFlag(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("--version"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(env.stdout.String(), "chatwidget "+Version) {
		t.Errorf("stdout = %q", env.stdout.String())
	}
	if env.tuiOpts != nil {
		t.Error("--version must not start the widget")
	}
}

func TestImportCookiesCmd_File(t *testing.T) {
	env := newTestEnv(t)
	src := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(src, []byte(`{"csrftoken":"abc","sessionid":"s"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := env.run("import-cookies", src); err != nil {
		t.Fatalf("import-cookies error = %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Imported 2 cookies") {
		t.Errorf("stdout = %q", env.stdout.String())
	}

	cookies, err := config.LoadCookies()
	if err != nil || cookies.Get("csrftoken") != "abc" {
		t.Errorf("saved cookies = %v, %v", cookies, err)
	}
}

func TestImportCookiesCmd_Browser(t *testing.T) {
	env := newTestEnv(t)
	extractor := &fakeExtractor{result: &browser.ExtractResult{
		Cookies:     config.NewCookies(map[string]string{"csrftoken": "from-browser"}),
		BrowserName: "Firefox",
	}}
	env.deps.Extractor = extractor

	if err := env.run("import-cookies", "--browser", "firefox", "--base-url", "http://localhost:8000"); err != nil {
		t.Fatalf("import-cookies error = %v", err)
	}
	if extractor.host != "http://localhost:8000" {
		t.Errorf("extractor host = %q", extractor.host)
	}
	cookies, err := config.LoadCookies()
	if err != nil || cookies.Get("csrftoken") != "from-browser" {
		t.Errorf("saved cookies = %v, %v", cookies, err)
	}
}

func TestImportCookiesCmd_Args(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("import-cookies"); err == nil {
		t.Error("import-cookies without a source should fail")
	}
	if err := env.run("import-cookies", "x.json", "--browser", "chrome"); err == nil {
		t.Error("import-cookies with two sources should fail")
	}
	if err := env.run("import-cookies", "--browser", "safari"); err == nil {
		t.Error("unsupported browser should fail")
	}
}

func TestConfigCmd(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("config", "set", "base_url", "https://chat.example.com"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	if err := env.run("config", "set", "tui_theme", "dracula"); err != nil {
		t.Fatalf("config set theme error = %v", err)
	}

	env.stdout.Reset()
	if err := env.run("config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, `"base_url": "https://chat.example.com"`) || !strings.Contains(out, `"tui_theme": "dracula"`) {
		t.Errorf("config show = %s", out)
	}

	for _, args := range [][]string{
		{"config", "set", "no_such_key", "x"},
		{"config", "set", "tui_theme", "neon"},
		{"config", "set", "max_input_height", "0"},
	} {
		if err := env.run(args...); err == nil {
			t.Errorf("%v should fail", args)
		}
	}

	env.stdout.Reset()
	if err := env.run("config", "path"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(env.stdout.String()), filepath.Join(".chatwidget", "config.json")) {
		t.Errorf("config path = %q", env.stdout.String())
	}
}

func TestLogFileFlag(t *testing.T) {
	env := newTestEnv(t)
	logPath := filepath.Join(t.TempDir(), "logs", "widget.log")
	env.sender.err = errors.New("boom")

	_ = env.run("--log-file", logPath, "send", "q")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "chat request failed") {
		t.Errorf("log = %s", data)
	}
}
