// Command assess runs one multimodal assessment against a remote MindCare
// API: it fuses the given readings locally, escalates when warranted, and
// syncs the report through the HTTP collaborators.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/client"
	"github.com/wyxpro/mindcare/internal/escalation"
	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/history"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/internal/session"
	"github.com/wyxpro/mindcare/pkg/logging"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUnsynced = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code. Deferred
// cleanup runs before the code is returned.
func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("assess", flag.ContinueOnError)
	fset.SetOutput(stderr)
	var (
		api        = fset.String("api", "http://localhost:8080/api", "MindCare API base URL")
		token      = fset.String("token", os.Getenv("MINDCARE_TOKEN"), "Bearer token")
		user       = fset.String("user", "", "User UUID")
		scale      = fset.Float64("scale", 0, "PHQ-9 total (0-27)")
		voice      = fset.Float64("voice", 0, "Voice emotion score (0-100)")
		expression = fset.Float64("expression", 0, "Facial expression score (0-100)")
		advice     = fset.String("advice", "", "Advice text attached to the report")
		showHist   = fset.Bool("history", false, "Print the user's recent reports instead of assessing")
		limit      = fset.Int("limit", history.DefaultCapacity, "History entries to print")
		retryDelay = fset.Duration("retry-delay", reportsync.RetryDelay, "Wait between sync attempts")
		logLevel   = fset.String("log-level", "warn", "Log level (debug, info, warn, error)")
	)
	if err := fset.Parse(args); err != nil {
		return exitError
	}
	fail := func(err error) int {
		fmt.Fprintln(stderr, "assess:", err)
		return exitError
	}

	logCfg := logging.Config{Format: logging.FormatText, Level: *logLevel}
	if err := logCfg.Finalize(nil); err != nil {
		return fail(err)
	}
	logger := logging.New(stderr, logCfg, "mindcare-assess")

	userID, err := uuid.Parse(*user)
	if err != nil {
		return fail(fmt.Errorf("invalid -user: %w", err))
	}

	var opts []client.Option
	if *token != "" {
		opts = append(opts, client.WithToken(*token))
	}
	c, err := client.New(*api, opts...)
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := history.New(c, history.DefaultCapacity, logger)

	if *showHist {
		reports, err := cache.FetchRecent(ctx, userID, *limit)
		if err != nil {
			return fail(err)
		}
		emit(stdout, reports)
		return exitOK
	}

	engine, err := fusion.NewEngine(fusion.DefaultWeights())
	if err != nil {
		return fail(err)
	}

	manager := session.NewManager(
		engine,
		escalation.NewMonitor(c, logger, nil),
		reportsync.New(c, logger,
			reportsync.WithOnSuccess(session.InvalidateHistory(cache)),
			reportsync.WithRetryDelay(*retryDelay),
		),
		cache,
		fusion.DefaultPlaceholders(),
		logger,
	)
	defer manager.Close()

	req := session.AssessRequest{UserID: userID}
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			req.Scale = scale
		case "voice":
			req.Voice = voice
		case "expression":
			req.Expression = expression
		}
	})

	res, err := manager.Open(userID).Assess(ctx, req, *advice)
	if err != nil {
		return fail(err)
	}
	emit(stdout, res)

	if res.Sync.Status != reportsync.StatusSuccess {
		return exitUnsynced
	}
	return exitOK
}


func emit(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
