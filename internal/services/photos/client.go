package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/services"
)

const (
	groupSep  = "\x1d"
	recordSep = "\x1e"
	unitSep   = "\x1f"
	notFound  = "NOT FOUND"
)

// Executor runs an AppleScript with argv and returns its stdout.
type Executor interface {
	Run(ctx context.Context, binary, script string, args []string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout bounds every script invocation.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Album is a destination album.
type Album struct {
	Name string
	ID   string
}

// Client talks to Apple Photos.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a Photos client using the osascript binary.
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "osascript"
	}
	c := &Client{binary: binary, timeout: 10 * time.Minute, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ destination.Client    = (*Client)(nil)
	_ destination.Restarter = (*Client)(nil)
)

func (c *Client) run(ctx context.Context, op, script string, args []string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.exec.Run(callCtx, c.binary, script, args)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "photos", op, fmt.Sprintf("no reply within %s", c.timeout), err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "photos", op, "", err)
	}
	return strings.TrimRight(out, "\r\n"), nil
}

// Search implements destination.Searcher.
func (c *Client) Search(ctx context.Context, queries []destination.Query) ([][]destination.PhotoInfo, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	args := make([]string, 0, len(queries)*3)
	for _, q := range queries {
		switch q.Kind {
		case destination.ByName:
			args = append(args, "name", q.Name, "")
		case destination.ByTime:
			args = append(args, "time", strconv.FormatInt(q.From.Unix(), 10), strconv.FormatInt(q.To.Unix(), 10))
		default:
			return nil, services.Wrap(services.ErrValidation, "photos", "search", "unknown query kind "+q.Kind.String(), nil)
		}
	}
	out, err := c.run(ctx, "search", searchScript, args)
	if err != nil {
		return nil, err
	}
	return parseSearch(out, len(queries))
}

// GetInfo implements destination.InfoReader.
func (c *Client) GetInfo(ctx context.Context, ids []string) ([]destination.PhotoInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out, err := c.run(ctx, "get info", getInfoScript, ids)
	if err != nil {
		return nil, err
	}
	return parsePhotos(out)
}

// ListAlbums returns every top-level album.
func (c *Client) ListAlbums(ctx context.Context) ([]Album, error) {
	out, err := c.run(ctx, "list albums", listAlbumsScript, nil)
	if err != nil {
		return nil, err
	}
	var albums []Album
	for _, rec := range splitRecords(out) {
		fields := strings.Split(rec, unitSep)
		if len(fields) != 2 {
			return nil, services.Wrap(services.ErrExternalTool, "photos", "list albums", fmt.Sprintf("malformed record %q", rec), nil)
		}
		albums = append(albums, Album{Name: fields[0], ID: fields[1]})
	}
	return albums, nil
}

// CreateOrGetAlbum implements destination.Client.
func (c *Client) CreateOrGetAlbum(ctx context.Context, title string) (string, error) {
	out, err := c.run(ctx, "create album", createOrGetAlbumScript, []string{title})
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(out)
	if id == "" {
		return "", services.Wrap(services.ErrExternalTool, "photos", "create album", "empty album id for "+title, nil)
	}
	return id, nil
}

// AlbumItemCount implements destination.AlbumReader.
func (c *Client) AlbumItemCount(ctx context.Context, albumID string) (int, error) {
	out, err := c.run(ctx, "album count", albumCountScript, []string{albumID})
	if err != nil {
		return 0, err
	}
	out = strings.TrimSpace(out)
	if out == notFound {
		return 0, services.Wrap(services.ErrNotFound, "photos", "album count", albumID, nil)
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "photos", "album count", fmt.Sprintf("unexpected reply %q", out), err)
	}
	return n, nil
}

// AddToAlbum implements destination.Client.
func (c *Client) AddToAlbum(ctx context.Context, title string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	out, err := c.run(ctx, "add to album", addToAlbumScript, append([]string{title}, ids...))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "photos", "add to album", fmt.Sprintf("unexpected reply %q", out), err)
	}
	return n, nil
}

// ImportFiles implements destination.Client.
func (c *Client) ImportFiles(ctx context.Context, title string, paths []string) ([]destination.ImportedPhoto, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out, err := c.run(ctx, "import", importScript, append([]string{title}, paths...))
	if err != nil {
		return nil, err
	}
	return parseImported(out)
}

// Spotlight reveals a media item in the Photos window.
func (c *Client) Spotlight(ctx context.Context, id string) error {
	_, err := c.run(ctx, "spotlight", spotlightScript, []string{id})
	return err
}

// Properties returns the AppleScript property record of a media item.
func (c *Client) Properties(ctx context.Context, id string) (string, error) {
	return c.run(ctx, "properties", propertiesScript, []string{id})
}

// Restart implements destination.Restarter.
func (c *Client) Restart(ctx context.Context) error {
	_, err := c.run(ctx, "restart", restartScript, nil)
	return err
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary, script string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, append([]string{"-"}, args...)...) //nolint:gosec
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", errors.New(msg)
	}
	return stdout.String(), nil
}
