// Command logq queries and tails logs from the telemetry platform. It
// compiles a shorthand query language (or raw SQL) into ClickHouse SQL,
// runs it against the remote query endpoint, and renders the results.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/vegasq/logq/internal/client"
	"github.com/vegasq/logq/internal/config"
	"github.com/vegasq/logq/internal/output"
	"github.com/vegasq/logq/internal/query"
	"github.com/vegasq/logq/internal/sources"
	"github.com/vegasq/logq/internal/tail"
)

const version = "1.2.0"

func main() {
	// Diagnostics go to stderr without timestamps; results own stdout.
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	app := kingpin.New("logq", "Query and tail logs from the telemetry platform.")
	app.Version(version)
	app.HelpFlag.Short('h')

	addQueryCommand(app)
	addSQLCommand(app)
	addLogsCommands(app)
	addSourcesCommands(app)
	addConfigCommands(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// runContext returns a context cancelled by Ctrl+C or SIGTERM.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// session bundles everything a query-running command needs: the loaded
// config, the HTTP client, the source directory and the SQL builder.
type session struct {
	store  *config.Store
	cfg    config.Config
	client *client.Client
	api    *sources.API
}

func newSession(verbose bool) (*session, error) {
	store := config.DefaultStore()
	cfg := store.Load()

	token, err := config.APIToken()
	if err != nil {
		return nil, err
	}

	baseURL := cfg.QueryBaseURL
	if baseURL == "" {
		baseURL = config.DefaultQueryBaseURL
	}

	cl := client.New(token, baseURL, config.QueryCredentials())
	cl.Verbose = verbose

	return &session{
		store:  store,
		cfg:    cfg,
		client: cl,
		api:    &sources.API{Client: cl},
	}, nil
}

// builder constructs a SQL builder bound to the session's directory. The
// context covers directory lookups made during the build.
func (s *session) builder(ctx context.Context) *query.Builder {
	return &query.Builder{
		Directory: &boundDirectory{ctx: ctx, api: s.api},
		Config: query.BuildConfig{
			DefaultSource:   s.cfg.DefaultSource,
			DefaultLimit:    s.cfg.DefaultLimit,
			DefaultLogLevel: s.cfg.DefaultLogLevel,
		},
		ResolveAlias: s.cfg.ResolveAlias,
	}
}

// boundDirectory adapts the sources API to the builder's context-free
// Directory interface.
type boundDirectory struct {
	ctx context.Context
	api *sources.API
}

func (d *boundDirectory) FindByName(name string) (*sources.Source, error) {
	return d.api.FindByName(d.ctx, name)
}

// queryExecutor compiles options to SQL and runs them, one statement per
// call. It backs both one-shot queries and the follow loop.
type queryExecutor struct {
	builder *query.Builder
	client  *client.Client
}

func (e *queryExecutor) Execute(ctx context.Context, opts query.Options) ([]client.Entry, error) {
	sql, err := e.builder.Build(opts)
	if err != nil {
		return nil, err
	}
	return e.client.Query(ctx, sql)
}

// emitter renders batches in the chosen format, optionally piping them
// through jq.
func emitter(format, jqFilter string) func([]client.Entry) {
	format = output.ResolveFormat(format, jqFilter)
	return func(entries []client.Entry) {
		rendered, err := output.Render(entries, format)
		if err != nil {
			log.Printf("rendering results: %v", err)
			return
		}
		if jqFilter != "" {
			tail.PrintWithJQ(os.Stdout, os.Stderr, nil, jqFilter, rendered)
			return
		}
		fmt.Println(rendered)
	}
}

// printFooter reports the result count on stderr so it never pollutes
// piped output.
func printFooter(n int) {
	if n == 0 {
		log.Printf("No results found")
		return
	}
	log.Printf("%d results returned", n)
}

func (s *session) recordHistory(entry string) {
	if err := s.store.AddToHistory(entry); err != nil {
		log.Printf("saving query history: %v", err)
	}
}
