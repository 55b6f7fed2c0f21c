package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vegasq/logq/internal/jsonpath"
	"github.com/vegasq/logq/internal/sources"
	"github.com/vegasq/logq/internal/timeutil"
)

// ErrSourceNotSpecified reports a query with no explicit source and no
// configured default.
var ErrSourceNotSpecified = errors.New(
	"no source specified: use --source or set a default source with: logq config source <name>")

// SourceNotFoundError reports a source name absent from the directory.
type SourceNotFoundError struct {
	Name string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Name)
}

// Directory resolves source names to descriptors.
type Directory interface {
	// FindByName returns the source with the given name, or nil when the
	// directory has no such entry.
	FindByName(name string) (*sources.Source, error)
}

// BuildConfig is the configuration snapshot consulted by the builder.
type BuildConfig struct {
	DefaultSource   string
	DefaultLimit    int
	DefaultLogLevel string // "all" disables the default level filter
}

// Builder compiles Options into a single ClickHouse SQL statement.
// Identical inputs against the same config snapshot and clock yield
// byte-identical SQL.
type Builder struct {
	Directory Directory
	Config    BuildConfig

	// ResolveAlias maps short source aliases to full names before the
	// directory lookup. Nil means no aliasing.
	ResolveAlias func(string) string

	// Now anchors relative time expressions. Nil means time.Now.
	Now func() time.Time
}

// The level accessor falls back across the four level-bearing fields seen
// in practice, normalized to lower case.
const (
	levelExpr = "lowerUTF8(COALESCE(" +
		"JSONExtractString(raw, 'level')," +
		"JSON_VALUE(raw, '$.level')," +
		"JSON_VALUE(raw, '$.levelName')," +
		"JSON_VALUE(raw, '$.vercel.level')))"
	messageExpr = "COALESCE(JSONExtractString(raw, 'message'), JSON_VALUE(raw, '$.message'))"
	statusExpr  = "toInt32OrZero(JSON_VALUE(raw, '$.vercel.proxy.status_code'))"
)

// EscapeString doubles backslashes and single quotes for embedding in a
// SQL string literal.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// Build produces the SQL statement for opts.
func (b *Builder) Build(opts Options) (string, error) {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}

	level := opts.Level
	if level == "" {
		if dl := b.Config.DefaultLogLevel; dl != "" && strings.ToLower(dl) != "all" {
			level = dl
		}
	}

	name := opts.Source
	if name == "" {
		name = b.Config.DefaultSource
	}
	if b.ResolveAlias != nil {
		name = b.ResolveAlias(name)
	}
	if name == "" {
		return "", ErrSourceNotSpecified
	}

	src, err := b.Directory.FindByName(name)
	if err != nil {
		return "", fmt.Errorf("resolving source %q: %w", name, err)
	}
	if src == nil {
		return "", &SourceNotFoundError{Name: name}
	}

	prefix := src.TablePrefix()

	fields := "dt, raw"
	if len(opts.Fields) > 0 {
		fields = buildFieldSelection(opts.Fields)
	}

	var sql strings.Builder
	fmt.Fprintf(&sql, "SELECT %s FROM remote(%s_logs)", fields, prefix)

	var conditions []string

	since, until := "", ""
	if opts.Since != "" {
		t, err := timeutil.Parse(opts.Since, now)
		if err != nil {
			return "", fmt.Errorf("invalid since value: %w", err)
		}
		since = timeutil.ClickHouseDateTime(t)
		conditions = append(conditions, fmt.Sprintf("dt >= toDateTime64('%s', 3)", since))
	}
	if opts.Until != "" {
		t, err := timeutil.Parse(opts.Until, now)
		if err != nil {
			return "", fmt.Errorf("invalid until value: %w", err)
		}
		until = timeutil.ClickHouseDateTime(t)
		conditions = append(conditions, fmt.Sprintf("dt <= toDateTime64('%s', 3)", until))
	}

	if level != "" {
		conditions = append(conditions, levelCondition(level))
	}

	if opts.Subsystem != "" {
		conditions = append(conditions,
			fmt.Sprintf("%s = '%s'", jsonpath.Accessor("subsystem"), EscapeString(opts.Subsystem)))
	}

	searchCondition := ""
	if opts.Search != "" {
		searchCondition = fmt.Sprintf("raw LIKE '%%%s%%'", EscapeString(opts.Search))
		conditions = append(conditions, searchCondition)
	}

	whereConditions := renderWhere(opts.Where)
	conditions = append(conditions, whereConditions...)

	if len(conditions) > 0 {
		sql.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	// Full-text search also consults cold storage: a UNION ALL branch
	// against the archival s3 table, always bounded in time.
	if opts.Search != "" {
		s3Conditions := []string{"_row_type = 1"}
		if since != "" {
			s3Conditions = append(s3Conditions, fmt.Sprintf("dt >= toDateTime64('%s', 3)", since))
		} else {
			s3Conditions = append(s3Conditions, "dt > now() - INTERVAL 24 HOUR")
		}
		if until != "" {
			s3Conditions = append(s3Conditions, fmt.Sprintf("dt <= toDateTime64('%s', 3)", until))
		}
		s3Conditions = append(s3Conditions, searchCondition)
		s3Conditions = append(s3Conditions, whereConditions...)

		fmt.Fprintf(&sql, " UNION ALL SELECT %s FROM s3Cluster(primary, %s_s3)", fields, prefix)
		sql.WriteString(" WHERE " + strings.Join(s3Conditions, " AND "))
	}

	sql.WriteString(" ORDER BY dt DESC")

	limit := opts.Limit
	if limit <= 0 {
		limit = b.Config.DefaultLimit
	}
	if limit <= 0 {
		limit = 100
	}
	fmt.Fprintf(&sql, " LIMIT %d", limit)
	sql.WriteString(" FORMAT JSONEachRow")

	return sql.String(), nil
}

// levelCondition renders the level filter. "error" and "warning" carry
// heuristics beyond plain equality: HTTP status classes and, for errors,
// message substring and error-key presence.
func levelCondition(level string) string {
	escaped := strings.ToLower(strings.ReplaceAll(level, "'", "''"))

	switch escaped {
	case "error":
		return fmt.Sprintf(
			"(%s = '%s' OR %s >= 500 OR positionCaseInsensitive(%s, 'error') > 0 OR JSONHas(raw, 'error'))",
			levelExpr, escaped, statusExpr, messageExpr)
	case "warning", "warn":
		return fmt.Sprintf(
			"(%s IN ('%s', 'warning', 'warn') OR (%s >= 400 AND %s < 500))",
			levelExpr, escaped, statusExpr, statusExpr)
	default:
		return fmt.Sprintf("%s = '%s'", levelExpr, escaped)
	}
}

// renderWhere converts ordered where conditions into SQL predicates. All
// scalars compare as quoted strings against the JSON accessor; composites
// compare against their compact JSON serialization.
func renderWhere(conds []Condition) []string {
	var rendered []string
	for _, c := range conds {
		accessor := jsonpath.Accessor(c.Field)
		switch c.Value.Kind {
		case KindNull:
			rendered = append(rendered, accessor+" IS NULL")
		case KindString:
			rendered = append(rendered, fmt.Sprintf("%s = '%s'", accessor, EscapeString(c.Value.Str)))
		case KindBool:
			rendered = append(rendered, fmt.Sprintf("%s = '%s'", accessor, c.Value.Text()))
		case KindObject, KindArray:
			rendered = append(rendered, fmt.Sprintf("%s = '%s'", accessor, EscapeString(c.Value.JSON())))
		default:
			rendered = append(rendered, fmt.Sprintf("%s = '%s'", accessor, EscapeString(c.Value.Text())))
		}
	}
	return rendered
}

// buildFieldSelection renders an explicit field list. dt always leads;
// "*" and "raw" map to the raw column; a literal dt entry is skipped; every
// other field becomes an aliased JSON accessor.
func buildFieldSelection(fields []string) string {
	selections := []string{"dt"}
	for _, field := range fields {
		switch field {
		case "*", "raw":
			selections = append(selections, "raw")
		case "dt":
			// already selected
		default:
			alias := strings.ReplaceAll(field, `"`, `""`)
			selections = append(selections, fmt.Sprintf("%s AS \"%s\"", jsonpath.Accessor(field), alias))
		}
	}
	return strings.Join(selections, ", ")
}
