package migrate

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var embedded embed.FS

// Files returns the embedded migration set.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}
