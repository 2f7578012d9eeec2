package scaffold

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/ucm/internal/config"
	"github.com/dyluth/ucm/internal/store"
	"gopkg.in/yaml.v3"
)

//go:embed templates/ucm.yml.tmpl
var configTemplate []byte

// Result lists what Initialize created, relative to the project directory.
type Result struct {
	Created []string
}

// Initialize writes ucm.yml and prepares the local data directory in dir.
// If force is true an existing ucm.yml is overwritten. Existing data is never
// touched.
func Initialize(dir string, force bool, out io.Writer) (*Result, error) {
	if err := validateTemplate(); err != nil {
		return nil, err
	}

	res := &Result{}
	cfgPath := filepath.Join(dir, config.DefaultPath)

	if err := CheckExisting(dir); err != nil {
		if !force {
			return nil, err
		}
		fmt.Fprintf(out, "⚠️  Overwriting existing %s...\n", config.DefaultPath)
	}

	if err := os.WriteFile(cfgPath, configTemplate, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", config.DefaultPath, err)
	}
	res.Created = append(res.Created, config.DefaultPath)

	dataFile := filepath.Join(dir, "data", store.DataFile)
	if _, err := os.Stat(dataFile); os.IsNotExist(err) {
		res.Created = append(res.Created, filepath.Join("data", store.DataFile))
	}
	if _, err := store.NewLocal(filepath.Join(dir, "data"), nil); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	return res, nil
}

// validateTemplate checks the embedded config decodes strictly into Config,
// so a renamed setting cannot silently drift from the template.
func validateTemplate() error {
	var cfg config.Config
	dec := yaml.NewDecoder(bytes.NewReader(configTemplate))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("embedded %s template is invalid: %w", config.DefaultPath, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer, res *Result) {
	fmt.Fprintln(w, "✅ Successfully initialized ucm!")
	if len(res.Created) > 0 {
		fmt.Fprintln(w, "\nCreated:")
		for _, path := range res.Created {
			fmt.Fprintf(w, "  ✓ %s\n", path)
		}
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Pick a backend in ucm.yml (local works out of the box)")
	fmt.Fprintln(w, "  2. Add your first use case: ucm add --title \"...\"")
	fmt.Fprintln(w, "  3. Run 'ucm serve' to start the HTTP API")
}
