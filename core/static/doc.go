// Package static serves files from an fs.FS: an embedded asset bundle or an
// on-disk directory via os.DirFS.
//
//	assets := os.DirFS(cfg.StaticDir)
//	r.Get("/static/", static.FS[*web.Context](assets, static.WithStripPrefix("/static/")))
//	r.Get("/{$}", static.File[*web.Context](assets, "index.html"))
//
// Directory listings are never produced: a directory without index.html is
// reported as not found. Missing files become response.ErrNotFound so they
// render through the router's error handler like any other 404.
package static
