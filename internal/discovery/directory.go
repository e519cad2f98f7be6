package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DirectoryItem is one entry of the Discovery directory listing.
type DirectoryItem struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Version          string `json:"version"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	DiscoveryRestURL string `json:"discoveryRestUrl"`
	Preferred        bool   `json:"preferred"`
}

// Directory lists available APIs and resolves (name, version) pairs to
// their Discovery document URLs.
type Directory struct {
	baseURL string
	fetcher *Fetcher
}

func NewDirectory(baseURL string, timeout time.Duration) *Directory {
	return &Directory{baseURL: baseURL, fetcher: NewFetcher(timeout)}
}

// List returns all directory entries sorted by id.
func (d *Directory) List(ctx context.Context) ([]DirectoryItem, error) {
	raw, err := d.fetcher.Fetch(ctx, d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	var payload struct {
		Items []DirectoryItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("directory: parse failed: %w", err)
	}
	sort.Slice(payload.Items, func(i, j int) bool { return payload.Items[i].ID < payload.Items[j].ID })
	return payload.Items, nil
}

// ErrNotFound is returned by Resolve when no directory entry matches.
type ErrNotFound struct {
	Name    string
	Version string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("directory: no API named %s:%s", e.Name, e.Version)
}

// Resolve finds the directory entry for the given API name and version.
func (d *Directory) Resolve(ctx context.Context, name, version string) (*DirectoryItem, error) {
	items, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == name && items[i].Version == version {
			return &items[i], nil
		}
	}
	return nil, &ErrNotFound{Name: name, Version: version}
}
