// Package qbit adapts the qBittorrent WebUI API to the core.TorrentService
// boundary. All network I/O of a sweep lives here; the decision engine never
// sees the wire format.
package qbit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	qbittorrent "github.com/autobrr/go-qbittorrent"

	"github.com/torrkit/seedsweep/internal/core"
	"github.com/torrkit/seedsweep/internal/logger"
)

// Config holds the WebUI connection settings.
type Config struct {
	Endpoint string // e.g. http://127.0.0.1:8080
	Username string
	Password string
	Timeout  time.Duration
}

// Client implements core.TorrentService against a qBittorrent WebUI.
type Client struct {
	qb  *qbittorrent.Client
	log logger.Logger
}

// New validates the endpoint and builds a client. No network activity
// happens here; a malformed endpoint fails fast before any call.
func New(cfg Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewNop()
	}

	if err := ValidateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}

	timeout := int(cfg.Timeout.Seconds())
	if timeout <= 0 {
		timeout = 30
	}

	qb := qbittorrent.NewClient(qbittorrent.Config{
		Host:     cfg.Endpoint,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  timeout,
	})

	return &Client{qb: qb, log: log}, nil
}

// ValidateEndpoint checks that the WebUI endpoint is a usable http(s) URL.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", core.ErrBadEndpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBadEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", core.ErrBadEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", core.ErrBadEndpoint, endpoint)
	}
	return nil
}

// Login authenticates against the WebUI. It is called at the start of every
// run; no session is reused across runs.
func (c *Client) Login(ctx context.Context) error {
	if err := c.qb.LoginCtx(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrAuthFailed, err)
	}
	c.log.Debug("authenticated against qBittorrent WebUI")
	return nil
}

// List fetches the full torrent list and maps it into the snapshot model.
func (c *Client) List(ctx context.Context) ([]core.Torrent, error) {
	torrents, err := c.qb.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing torrents: %w", err)
	}

	out := make([]core.Torrent, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, toTorrent(t))
	}

	c.log.Debug("snapshot fetched", logger.F("torrents", len(out)))
	return out, nil
}

// Remove deletes the given torrents, with their file data when deleteFiles
// is set. One call covers the whole decision set.
func (c *Client) Remove(ctx context.Context, hashes []string, deleteFiles bool) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := c.qb.DeleteTorrentsCtx(ctx, hashes, deleteFiles); err != nil {
		return fmt.Errorf("deleting %d torrents: %w", len(hashes), err)
	}
	return nil
}

// toTorrent maps one WebUI list entry into the snapshot model. The v2 API
// always reports a ratio for listed torrents, so Ratio is always set here;
// the core still treats a nil ratio conservatively for callers that cannot
// measure one.
func toTorrent(t qbittorrent.Torrent) core.Torrent {
	ratio := t.Ratio
	return core.Torrent{
		Hash:    t.Hash,
		Name:    t.Name,
		AddedOn: t.AddedOn,
		Ratio:   &ratio,
		Size:    t.Size,
	}
}

// Ensure Client implements core.TorrentService
var _ core.TorrentService = (*Client)(nil)
