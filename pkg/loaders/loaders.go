// Package loaders registers the built-in asset loaders: images, JSON,
// YAML, TOML, XML, line-oriented text, CSV tables, and raw bytes. Each
// loader is registered under its canonical capability name and reads from
// the local filesystem or, for http(s) paths, over the network.
//
// Importing this package is enough to make every loader available:
//
//	import _ "github.com/go-sketch/sketch/pkg/loaders"
package loaders

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/go-sketch/sketch/pkg/sketch"
)

func init() {
	sketch.RegisterLoader("loadImage", loadImage)
	sketch.RegisterLoader("loadJSON", loadJSON)
	sketch.RegisterLoader("loadYAML", loadYAML)
	sketch.RegisterLoader("loadTOML", loadTOML)
	sketch.RegisterLoader("loadXML", loadXML)
	sketch.RegisterLoader("loadStrings", loadStrings)
	sketch.RegisterLoader("loadTable", loadTable)
	sketch.RegisterLoader("loadBytes", loadBytes)
}

// fetch reads the asset behind path: an http(s) URL is fetched over the
// network, anything else is a filesystem path.
func fetch(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: %s", path, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(path)
}

// async runs decode off the calling goroutine and reports its result
// through complete. Loaders stay non-blocking so a preload hook can trigger
// many of them before the gate seals.
func async(path string, complete func(any, error), decode func(data []byte) (any, error)) {
	go func() {
		data, err := fetch(path)
		if err != nil {
			complete(nil, err)
			return
		}
		v, err := decode(data)
		complete(v, err)
	}()
}

func loadImage(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", path, err)
		}
		return img, nil
	})
}

func loadJSON(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode json %s: %w", path, err)
		}
		return v, nil
	})
}

func loadYAML(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode yaml %s: %w", path, err)
		}
		return v, nil
	})
}

func loadTOML(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		v := map[string]any{}
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode toml %s: %w", path, err)
		}
		return v, nil
	})
}

func loadXML(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		node, err := parseXML(data)
		if err != nil {
			return nil, fmt.Errorf("decode xml %s: %w", path, err)
		}
		return node, nil
	})
}

// loadStrings splits the asset into lines, without trailing newlines.
func loadStrings(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		var lines []string
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return lines, nil
	})
}

func loadTable(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		table, err := parseTable(data)
		if err != nil {
			return nil, fmt.Errorf("decode table %s: %w", path, err)
		}
		return table, nil
	})
}

func loadBytes(path string, complete func(any, error)) {
	async(path, complete, func(data []byte) (any, error) {
		return data, nil
	})
}

// Table is the parsed form of a CSV asset: the header row as column names
// and every following row as string cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// Get returns the cell at row r in the named column.
func (t *Table) Get(r int, column string) (string, bool) {
	if r < 0 || r >= len(t.Rows) {
		return "", false
	}
	for i, name := range t.Columns {
		if name == column && i < len(t.Rows[r]) {
			return t.Rows[r][i], true
		}
	}
	return "", false
}

func parseTable(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}
