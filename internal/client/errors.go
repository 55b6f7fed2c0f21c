package client

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vegasq/logq/internal/config"
)

// ErrTimeout reports a query that did not complete within the request
// timeout.
var ErrTimeout = errors.New("query timed out")

// AuthError reports a query API authentication failure. Malformed
// distinguishes the 400 "Malformed token" sub-case, which almost always
// means the query credentials are missing rather than wrong.
type AuthError struct {
	Malformed bool
	Message   string
}

func (e *AuthError) Error() string { return e.Message }

// QueryError is a non-2xx query response outside the auth patterns.
type QueryError struct {
	Status int
	Body   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %d - %s", e.Status, e.Body)
}

func envStatus(name string) string {
	if os.Getenv(name) != "" {
		return "set"
	}
	return "not set"
}

func malformedTokenError() *AuthError {
	var b strings.Builder
	b.WriteString("query API authentication failed: malformed token\n\n")
	b.WriteString("This usually means your query API credentials are not set.\n\n")
	b.WriteString("Current environment:\n")
	fmt.Fprintf(&b, "  %s: %s\n", config.EnvAPIToken, envStatus(config.EnvAPIToken))
	fmt.Fprintf(&b, "  %s: %s\n", config.EnvQueryUsername, envStatus(config.EnvQueryUsername))
	fmt.Fprintf(&b, "  %s: %s\n\n", config.EnvQueryPassword, envStatus(config.EnvQueryPassword))
	b.WriteString("To fix this, export the credentials and retry:\n")
	fmt.Fprintf(&b, "  export %s=\"your_username\"\n", config.EnvQueryUsername)
	fmt.Fprintf(&b, "  export %s=\"your_password\"\n\n", config.EnvQueryPassword)
	b.WriteString("Query credentials are created under Dashboards > Connect remotely.")
	return &AuthError{Malformed: true, Message: b.String()}
}

func missingCredentialsError() *AuthError {
	var b strings.Builder
	b.WriteString("query API authentication failed\n\n")
	b.WriteString("The query API requires separate credentials from your API token.\n")
	b.WriteString("Create them under Dashboards > Connect remotely, then export:\n")
	fmt.Fprintf(&b, "  export %s=\"your_username\"\n", config.EnvQueryUsername)
	fmt.Fprintf(&b, "  export %s=\"your_password\"", config.EnvQueryPassword)
	return &AuthError{Message: b.String()}
}

func genericAuthError() *AuthError {
	return &AuthError{Message: "authentication failed: please check your query API credentials"}
}
