package static

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
)

type config struct {
	stripPrefix  string
	cacheControl string
}

// Option configures file serving.
type Option func(*config)

// WithStripPrefix removes prefix from the URL path before the file lookup.
func WithStripPrefix(prefix string) Option {
	return func(c *config) { c.stripPrefix = prefix }
}

// WithCacheControl sets the Cache-Control header on served files.
func WithCacheControl(value string) Option {
	return func(c *config) { c.cacheControl = value }
}

// FS serves files from fsys under the request path.
func FS[C handler.Context](fsys fs.FS, opts ...Option) handler.HandlerFunc[C] {
	cfg := apply(opts)
	files := http.FS(noListing{fsys})

	return func(ctx C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			name := strings.TrimPrefix(r.URL.Path, cfg.stripPrefix)
			return serve(w, r, files, name, cfg)
		}
	}
}

// File serves one named file from fsys regardless of the request path.
// Panics at startup if the file is missing.
func File[C handler.Context](fsys fs.FS, name string) handler.HandlerFunc[C] {
	if info, err := fs.Stat(fsys, name); err != nil || info.IsDir() {
		panic("static.File: not a readable file: " + name)
	}
	files := http.FS(fsys)

	return func(ctx C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			return serve(w, r, files, name, config{})
		}
	}
}

func serve(w http.ResponseWriter, r *http.Request, files http.FileSystem, name string, cfg config) error {
	name = path.Clean("/" + name)

	f, err := files.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return response.ErrNotFound
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		idx, err := files.Open(path.Join(name, "index.html"))
		if err != nil {
			return response.ErrNotFound
		}
		defer idx.Close()
		if info, err = idx.Stat(); err != nil {
			return err
		}
		f = idx
	}

	if cfg.cacheControl != "" {
		w.Header().Set("Cache-Control", cfg.cacheControl)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

func apply(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// noListing hides directories that have no index.html.
type noListing struct {
	fs.FS
}

func (n noListing) Open(name string) (fs.File, error) {
	f, err := n.FS.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		if _, err := fs.Stat(n.FS, path.Join(name, "index.html")); err != nil {
			_ = f.Close()
			return nil, fs.ErrNotExist
		}
	}
	return f, nil
}
