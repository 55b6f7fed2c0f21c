// Package sources resolves human source names against the telemetry
// directory service. Lookups always hit the directory; descriptors are
// never cached across invocations.
package sources

import (
	"context"
	"fmt"

	"github.com/vegasq/logq/internal/client"
)

const pageSize = 50

// Attributes describes a source's ingestion endpoint and usage counters.
type Attributes struct {
	Name            string `json:"name"`
	Platform        string `json:"platform"`
	Token           string `json:"token"`
	TeamID          int64  `json:"team_id"`
	TableName       string `json:"table_name"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	IngestingPaused bool   `json:"ingesting_paused"`
	MessagesCount   int64  `json:"messages_count"`
	BytesCount      int64  `json:"bytes_count"`
}

// Source is one directory entry.
type Source struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// TablePrefix derives the physical table name prefix used in SQL.
func (s Source) TablePrefix() string {
	return fmt.Sprintf("t%d_%s", s.Attributes.TeamID, s.Attributes.TableName)
}

type pagination struct {
	First string `json:"first"`
	Last  string `json:"last"`
	Prev  string `json:"prev"`
	Next  string `json:"next"`
}

type listResponse struct {
	Data       []Source   `json:"data"`
	Pagination pagination `json:"pagination"`
}

type getResponse struct {
	Data Source `json:"data"`
}

// API lists and resolves sources through the directory service.
type API struct {
	Client *client.Client
}

// ListPage fetches one page of sources.
func (a *API) ListPage(ctx context.Context, page, perPage int) ([]Source, bool, error) {
	var resp listResponse
	path := fmt.Sprintf("/sources?page=%d&per_page=%d", page, perPage)
	if err := a.Client.GetJSON(ctx, path, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.Pagination.Next != "", nil
}

// ListAll fetches every source, following pagination transparently.
func (a *API) ListAll(ctx context.Context) ([]Source, error) {
	var all []Source
	for page := 1; ; page++ {
		batch, more, err := a.ListPage(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if !more {
			return all, nil
		}
	}
}

// Get fetches one source by id.
func (a *API) Get(ctx context.Context, id string) (*Source, error) {
	var resp getResponse
	if err := a.Client.GetJSON(ctx, "/sources/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// FindByName returns the source with the given name, or nil when the
// directory has no such entry.
func (a *API) FindByName(ctx context.Context, name string) (*Source, error) {
	all, err := a.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Attributes.Name == name {
			return &all[i], nil
		}
	}
	return nil, nil
}
