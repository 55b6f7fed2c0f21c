package main

import (
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/vegasq/logq/internal/client"
	"github.com/vegasq/logq/internal/query"
	"github.com/vegasq/logq/internal/tail"
)

const defaultIntervalMS = 2000

// queryCommand runs one shorthand query and prints the results.
type queryCommand struct {
	shorthand *string
	source    *string
	format    *string
	jq        *string
	verbose   *bool
}

func (cmd *queryCommand) run(c *kingpin.ParseContext) error {
	ctx, stop := runContext()
	defer stop()

	opts, err := query.ParseShorthand(*cmd.shorthand)
	if err != nil {
		return err
	}
	if *cmd.source != "" {
		opts.Source = *cmd.source
	}
	opts.Verbose = *cmd.verbose

	sess, err := newSession(*cmd.verbose)
	if err != nil {
		return err
	}
	sess.recordHistory(*cmd.shorthand)

	exec := &queryExecutor{builder: sess.builder(ctx), client: sess.client}
	results, err := exec.Execute(ctx, opts)
	if err != nil {
		return err
	}

	if len(results) > 0 {
		emitter(resolveFormat(*cmd.format, sess.cfg.OutputFormat, "pretty"), *cmd.jq)(results)
	}
	printFooter(len(results))
	return nil
}

func addQueryCommand(app *kingpin.Application) {
	cmd := &queryCommand{}
	q := app.Command("query", "Run a shorthand query, e.g. '{ logs(limit: 10, level: error) { dt, raw } }'.").Action(cmd.run)
	cmd.shorthand = q.Arg("query", "Shorthand query text.").Required().String()
	cmd.source = q.Flag("source", "Source to query, overriding the one in the query text.").Short('s').String()
	cmd.format = q.Flag("format", "Output format: pretty, table, json, csv.").Short('f').String()
	cmd.jq = q.Flag("jq", "Pipe results through a jq filter (forces json).").String()
	cmd.verbose = q.Flag("verbose", "Print the generated SQL to stderr.").Short('v').Bool()
}

// sqlCommand runs a raw SQL statement against the query endpoint.
type sqlCommand struct {
	statement *string
	format    *string
	jq        *string
	verbose   *bool
}

func (cmd *sqlCommand) run(c *kingpin.ParseContext) error {
	ctx, stop := runContext()
	defer stop()

	sess, err := newSession(*cmd.verbose)
	if err != nil {
		return err
	}
	sess.recordHistory("SQL: " + *cmd.statement)

	results, err := sess.client.QuerySQL(ctx, *cmd.statement)
	if err != nil {
		return err
	}

	if len(results) > 0 {
		emitter(resolveFormat(*cmd.format, "", "json"), *cmd.jq)(results)
	}
	printFooter(len(results))
	return nil
}

func addSQLCommand(app *kingpin.Application) {
	cmd := &sqlCommand{}
	s := app.Command("sql", "Run a raw SQL statement.").Action(cmd.run)
	cmd.statement = s.Arg("statement", "SQL statement to run.").Required().String()
	cmd.format = s.Flag("format", "Output format: json, table, csv, pretty.").Short('f').String()
	cmd.jq = s.Flag("jq", "Pipe results through a jq filter (forces json).").String()
	cmd.verbose = s.Flag("verbose", "Print request diagnostics to stderr.").Short('v').Bool()
}

// logsCommand is the shared implementation behind tail, errors, warnings,
// search and trace. Each variant presets a filter before handing off to
// the polling engine.
type logsCommand struct {
	limit     *int
	level     *string
	subsystem *string
	since     *string
	until     *string
	fields    *string
	source    *string
	sources   *[]string
	where     *[]string
	format    *string
	jq        *string
	follow    *bool
	interval  *int
	verbose   *bool

	// presets applied by the errors/warnings/search/trace variants
	fixedLevel string
	pattern    *string
	requestID  *string
}

func (cmd *logsCommand) run(c *kingpin.ParseContext) error {
	ctx, stop := runContext()
	defer stop()

	sess, err := newSession(*cmd.verbose)
	if err != nil {
		return err
	}

	opts := query.Options{
		Limit:     *cmd.limit,
		Level:     *cmd.level,
		Subsystem: *cmd.subsystem,
		Since:     *cmd.since,
		Until:     *cmd.until,
		Where:     query.ParseWhereFlags(*cmd.where),
		Verbose:   *cmd.verbose,
	}
	if cmd.fixedLevel != "" && opts.Level == "" {
		opts.Level = cmd.fixedLevel
	}
	if cmd.pattern != nil {
		opts.Search = *cmd.pattern
	}
	if cmd.requestID != nil && *cmd.requestID != "" {
		opts.Where = query.SetCondition(opts.Where, "requestId", query.StringValue(*cmd.requestID))
	}
	if *cmd.fields != "" {
		opts.Fields = query.SplitList([]string{*cmd.fields})
	}

	resolved := cmd.resolveSources(sess)

	interval := *cmd.interval
	if interval < 100 {
		interval = defaultIntervalMS
	}

	count := 0
	emit := emitter(resolveFormat(*cmd.format, sess.cfg.OutputFormat, "pretty"), *cmd.jq)
	tailer := &tail.Tailer{
		Exec: &queryExecutor{builder: sess.builder(ctx), client: sess.client},
		Emit: func(entries []client.Entry) {
			count += len(entries)
			emit(entries)
		},
		Interval: time.Duration(interval) * time.Millisecond,
	}

	if len(resolved) > 1 {
		err = tailer.RunMulti(ctx, opts, resolved, *cmd.follow)
	} else {
		if len(resolved) == 1 {
			opts.Source = resolved[0]
		}
		err = tailer.Run(ctx, opts, *cmd.follow)
	}
	if err != nil {
		return err
	}

	if !*cmd.follow {
		printFooter(count)
	}
	return nil
}

// resolveSources merges the positional/flag source with any --sources
// entries, resolving configured aliases. An empty result leaves source
// selection to the builder's configured default.
func (cmd *logsCommand) resolveSources(sess *session) []string {
	var names []string
	if *cmd.source != "" {
		names = append(names, *cmd.source)
	}
	names = append(names, *cmd.sources...)

	merged := query.SplitList(names)
	resolved := make([]string, 0, len(merged))
	seen := make(map[string]bool, len(merged))
	for _, name := range merged {
		full := sess.cfg.ResolveAlias(name)
		if !seen[full] {
			seen[full] = true
			resolved = append(resolved, full)
		}
	}
	return resolved
}

func (cmd *logsCommand) register(c *kingpin.CmdClause) {
	cmd.limit = c.Flag("limit", "Maximum number of results.").Short('n').Default("100").Int()
	cmd.level = c.Flag("level", "Log level filter: debug, info, warning, error, fatal, trace.").Short('l').String()
	cmd.subsystem = c.Flag("subsystem", "Filter by subsystem.").String()
	cmd.since = c.Flag("since", "Start of the time range, relative (1h, 2d, 30m, 1w) or absolute.").String()
	cmd.until = c.Flag("until", "End of the time range.").String()
	cmd.fields = c.Flag("fields", "Comma-separated fields to select instead of the full record.").String()
	cmd.sources = c.Flag("sources", "Additional sources to merge into one stream.").Strings()
	cmd.where = c.Flag("where", "Field filter as field=value, repeatable.").Strings()
	cmd.format = c.Flag("format", "Output format: pretty, table, json, csv.").String()
	cmd.jq = c.Flag("jq", "Pipe results through a jq filter (forces json).").String()
	cmd.follow = c.Flag("follow", "Keep polling for new logs until interrupted.").Short('f').Bool()
	cmd.interval = c.Flag("interval", "Polling interval in milliseconds.").Default("2000").Int()
	cmd.verbose = c.Flag("verbose", "Print the generated SQL to stderr.").Short('v').Bool()
}

func addLogsCommands(app *kingpin.Application) {
	tailCmd := &logsCommand{}
	t := app.Command("tail", "Fetch recent logs, optionally following for new ones.").Action(tailCmd.run)
	tailCmd.source = t.Arg("source", "Source to query.").String()
	tailCmd.register(t)

	errorsCmd := &logsCommand{fixedLevel: "error"}
	e := app.Command("errors", "Fetch recent error logs.").Action(errorsCmd.run)
	errorsCmd.source = e.Arg("source", "Source to query.").String()
	errorsCmd.register(e)

	warningsCmd := &logsCommand{fixedLevel: "warning"}
	w := app.Command("warnings", "Fetch recent warning logs.").Action(warningsCmd.run)
	warningsCmd.source = w.Arg("source", "Source to query.").String()
	warningsCmd.register(w)

	searchCmd := &logsCommand{}
	s := app.Command("search", "Full-text search across hot and cold storage.").Action(searchCmd.run)
	searchCmd.pattern = s.Arg("pattern", "Text to search for.").Required().String()
	searchCmd.source = s.Arg("source", "Source to query.").String()
	searchCmd.register(s)

	traceCmd := &logsCommand{}
	tr := app.Command("trace", "Fetch all logs for a request id.").Action(traceCmd.run)
	traceCmd.requestID = tr.Arg("request-id", "Request id to trace.").Required().String()
	traceCmd.source = tr.Arg("source", "Source to query.").String()
	traceCmd.register(tr)
}

// resolveFormat picks the first non-empty of flag, configured default and
// fallback.
func resolveFormat(flag, configured, fallback string) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	return fallback
}
