package fixtures

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed defaults/*.json
var defaultFS embed.FS

// Defaults returns the fixtures compiled into the binary.
func Defaults() Source {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return fsSource{name: "embedded defaults", fsys: sub}
}

// Dir returns a source reading every <key>.json file in dir.
func Dir(dir string) Source {
	return fsSource{name: "directory " + dir, fsys: os.DirFS(dir)}
}

type fsSource struct {
	name string
	fsys fs.FS
}

func (s fsSource) Name() string { return s.name }

func (s fsSource) Fetch(_ context.Context) (map[string]json.RawMessage, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read fixture dir: %w", err)
	}

	out := make(map[string]json.RawMessage)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(s.fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", e.Name(), err)
		}
		if !json.Valid(b) {
			return nil, fmt.Errorf("fixture %s is not valid JSON", e.Name())
		}
		out[strings.TrimSuffix(path.Base(e.Name()), ".json")] = json.RawMessage(b)
	}
	return out, nil
}
