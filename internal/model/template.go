package model

// Template describes a blog blueprint. Metadata comes from the template.yaml
// at the root of each template directory; Path is where the blueprint files
// live on disk.
type Template struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	Version      string   `json:"version,omitempty" yaml:"version"`
	DefaultTheme string   `json:"default_theme,omitempty" yaml:"default_theme"`
	Themes       []string `json:"themes,omitempty" yaml:"themes"`
	Features     []string `json:"features,omitempty" yaml:"features"`

	// Variables are the configuration variables the template expects,
	// substituted as {{NAME}} tokens during generation.
	Variables []string `json:"variables,omitempty" yaml:"variables"`

	// ConfigFiles are the files, relative to the template root, that carry
	// substitution tokens.
	ConfigFiles []string `json:"-" yaml:"config_files"`

	Path string `json:"-" yaml:"-"`
}

// SupportsTheme reports whether the template ships the named theme. An empty
// theme list means any theme name is accepted.
func (t *Template) SupportsTheme(theme string) bool {
	if len(t.Themes) == 0 {
		return true
	}
	for _, th := range t.Themes {
		if th == theme {
			return true
		}
	}
	return false
}
