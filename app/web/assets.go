package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed assets
var embedded embed.FS

// assetsFS returns the UI bundle: dir when set, the embedded copy otherwise.
func assetsFS(dir string) (fs.FS, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(embedded, "assets")
}
