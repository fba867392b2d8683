package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// ErrNotFound is returned when no template with the requested ID exists.
var ErrNotFound = errors.New("template not found")

const metadataFile = "template.yaml"

// Registry indexes the blog templates available on disk. Each template is a
// directory under the templates dir containing a template.yaml plus the
// blueprint files copied into new instances.
type Registry struct {
	dir    string
	logger zerolog.Logger

	mu        sync.RWMutex
	templates map[string]*model.Template
}

func NewRegistry(dir string, logger zerolog.Logger) *Registry {
	return &Registry{
		dir:       dir,
		logger:    logger.With().Str("component", "templates").Logger(),
		templates: make(map[string]*model.Template),
	}
}

// Load scans the templates dir and replaces the in-memory index. A
// directory with missing or broken metadata is logged and omitted; the
// remaining templates load normally.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read templates dir %s: %w", r.dir, err)
	}

	loaded := make(map[string]*model.Template)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		tpl, err := readMetadata(path)
		if err != nil {
			if os.IsNotExist(err) {
				r.logger.Warn().Str("dir", entry.Name()).Msg("skipping directory without template.yaml")
			} else {
				r.logger.Warn().Err(err).Str("dir", entry.Name()).Msg("skipping template with broken metadata")
			}
			continue
		}

		if tpl.ID == "" {
			tpl.ID = entry.Name()
		}
		if tpl.ID != entry.Name() {
			r.logger.Warn().
				Str("dir", entry.Name()).
				Str("id", tpl.ID).
				Msg("skipping template whose metadata id does not match its directory")
			continue
		}
		tpl.Path = path
		loaded[tpl.ID] = tpl
	}

	r.mu.Lock()
	r.templates = loaded
	r.mu.Unlock()

	r.logger.Info().Int("count", len(loaded)).Str("dir", r.dir).Msg("templates loaded")
	return nil
}

func readMetadata(dir string) (*model.Template, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var tpl model.Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metadataFile, err)
	}
	if tpl.Name == "" {
		return nil, fmt.Errorf("%s: name is required", metadataFile)
	}
	return &tpl, nil
}

// Get returns the template with the given ID or ErrNotFound.
func (r *Registry) Get(id string) (*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	cp := *tpl
	return &cp, nil
}

// List returns all templates sorted by ID.
func (r *Registry) List() []*model.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		cp := *tpl
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports how many templates are loaded.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}
