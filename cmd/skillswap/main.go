package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skillswap/client/internal/account"
	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/config"
	"github.com/skillswap/client/internal/connection"
	"github.com/skillswap/client/internal/directory"
	"github.com/skillswap/client/internal/editor"
	"github.com/skillswap/client/internal/kv"
	"github.com/skillswap/client/internal/session"
	"github.com/skillswap/client/pkg/validator"
)

// app wires the client packages for one invocation
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	in     *bufio.Reader
	out    io.Writer

	sessions    *session.Store
	account     *account.Client
	directory   *directory.Client
	connections *connection.Client
	editor      *editor.Editor

	closers []func() error
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	level := "warn"
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = v
	}
	logger, err := initLogger(level, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	a, err := newApp(ctx, cfg, logger, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer a.close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: skillswap %s\n", cmd.usage)
			return 2
		}
		if client.KindOf(err) == client.KindUnauthorized {
			// the stored token was rejected; drop it
			if clearErr := a.sessions.Clear(); clearErr != nil {
				logger.Warn("failed to clear rejected session", zap.Error(clearErr))
			}
		}
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	return 0
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, stdin io.Reader, stdout io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		in:     bufio.NewReader(stdin),
		out:    stdout,
	}

	var backend kv.Store
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rs, err := kv.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		backend = rs
	default:
		fs, err := kv.NewFileStore(cfg.Session.Path)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		backend = fs
	}
	a.sessions = session.NewStore(backend, logger)

	api, err := client.New(cfg.Client.APIURL, a.sessions,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a.account = account.NewClient(api, a.sessions, logger)
	a.directory = directory.NewClient(api)
	a.connections = connection.NewClient(api, a.sessions, logger)
	a.editor = editor.New(editor.NewClient(api), logger)
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}

// describe turns an error into the line shown to the user
func describe(err error) string {
	var verrs validator.ValidationErrors
	switch {
	case client.IsUnauthorized(err):
		return "You need to log in first. Run: skillswap login"
	case errors.As(err, &verrs):
		lines := make([]string, 0, len(verrs))
		for _, e := range verrs {
			lines = append(lines, "  "+e.Field+" "+e.Message)
		}
		return "Please fix the following:\n" + strings.Join(lines, "\n")
	case client.IsValidation(err):
		return err.Error()
	case client.IsNetwork(err):
		return "Could not reach SkillSwap. Please check your connection and try again."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	}
	return "Error: " + err.Error()
}

func initLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "skillswap - find people to swap skills with")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags go before positional arguments, e.g. skillswap rate -review \"great\" 12 5")
}
