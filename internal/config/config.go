// Package config reads and writes lancelot.yaml, the project manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dondejvo/lancelot-cli/internal/util"
)

const (
	// FileName is the manifest file name in the project root.
	FileName = "lancelot.yaml"

	// DefaultSource is where the library assets are downloaded from.
	DefaultSource = "https://raw.githubusercontent.com/DonDejvo/Lancelot/main/"

	// DefaultTitle is the <title> of a generated index.html.
	DefaultTitle = "Document"

	// RecommendedMinSize is the smallest container edge the engine is comfortable with.
	RecommendedMinSize = 300

	manifestVersion = "1"
)

// Environment overrides.
const (
	EnvAssetURL = "LANCELOT_ASSET_URL"
	EnvLogLevel = "LANCELOT_LOG_LEVEL"
)

// Manifest represents lancelot.yaml
type Manifest struct {
	Version string        `yaml:"version"`
	Project ProjectConfig `yaml:"project"`
	Assets  AssetsConfig  `yaml:"assets"`
	Hooks   HooksConfig   `yaml:"hooks"`
}

// ProjectConfig holds the values baked into the generated files.
type ProjectConfig struct {
	Name   string `yaml:"name"`
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// AssetsConfig describes where the library assets come from and what was last installed.
type AssetsConfig struct {
	Source    string      `yaml:"source"`
	Files     []AssetFile `yaml:"files"`
	UpdatedAt time.Time   `yaml:"updated_at,omitempty"`
}

// AssetFile is one library asset: Name is the remote file, Path the local one.
type AssetFile struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256,omitempty"`
}

// HooksConfig lists shell commands fired after init and update.
type HooksConfig struct {
	PostInit   []HookDef `yaml:"post_init,omitempty"`
	PostUpdate []HookDef `yaml:"post_update,omitempty"`
}

// HookDef is a single hook command.
type HookDef struct {
	Command   string            `yaml:"command"`
	Timeout   string            `yaml:"timeout,omitempty"`
	OnFailure string            `yaml:"on_failure,omitempty"` // abort, warn, ignore
	Env       map[string]string `yaml:"env,omitempty"`
}

// Hook events.
const (
	EventPostInit   = "post_init"
	EventPostUpdate = "post_update"
)

// GetHooks returns the hooks registered for event.
func (h HooksConfig) GetHooks(event string) []HookDef {
	switch event {
	case EventPostInit:
		return h.PostInit
	case EventPostUpdate:
		return h.PostUpdate
	}
	return nil
}

// DefaultAssets returns the two library assets every project carries.
func DefaultAssets() []AssetFile {
	return []AssetFile{
		{Name: "core.js", Path: "lib/core.js"},
		{Name: "core.css", Path: "lib/core.css"},
	}
}

// Default builds a manifest for a fresh project.
func Default(name string, width, height int) *Manifest {
	return &Manifest{
		Version: manifestVersion,
		Project: ProjectConfig{
			Name:   name,
			Title:  DefaultTitle,
			Width:  width,
			Height: height,
		},
		Assets: AssetsConfig{
			Source: DefaultSource,
			Files:  DefaultAssets(),
		},
	}
}

// Path returns the manifest location inside projectDir.
func Path(projectDir string) string {
	return filepath.Join(projectDir, FileName)
}

// Load reads and parses a manifest. Missing optional sections get defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Assets.Source == "" {
		m.Assets.Source = DefaultSource
	}
	if len(m.Assets.Files) == 0 {
		m.Assets.Files = DefaultAssets()
	}
	return &m, nil
}

// LoadOrDefault loads the manifest of projectDir, or returns defaults when
// none exists. found reports whether a manifest file was read.
func LoadOrDefault(projectDir string) (m *Manifest, found bool, err error) {
	path := Path(projectDir)
	if !util.Exists(path) {
		return Default(filepath.Base(projectDir), 0, 0), false, nil
	}
	m, err = Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	header := []byte("# Lancelot.js project manifest\n")
	return util.WriteFileAtomic(path, append(header, data...), 0o644)
}

// ApplyEnv applies environment overrides. An explicit source (from a flag)
// wins over the environment.
func (m *Manifest) ApplyEnv(flagSource string) {
	if flagSource != "" {
		m.Assets.Source = flagSource
	} else if env := strings.TrimSpace(os.Getenv(EnvAssetURL)); env != "" {
		m.Assets.Source = env
	}
	if !strings.HasSuffix(m.Assets.Source, "/") {
		m.Assets.Source += "/"
	}
}

// SetChecksum records the sha256 of the asset at localPath.
func (m *Manifest) SetChecksum(localPath, sum string) {
	for i := range m.Assets.Files {
		if m.Assets.Files[i].Path == localPath {
			m.Assets.Files[i].SHA256 = sum
			return
		}
	}
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field    string
	Message  string
	Expected string
}

func (e ValidationError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("%s: %s (expected: %s)", e.Field, e.Message, e.Expected)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks required fields. Width and height may be zero for projects
// that only track assets.
func (m *Manifest) Validate() []ValidationError {
	var errs []ValidationError

	if m.Project.Width < 0 {
		errs = append(errs, ValidationError{
			Field:    "project.width",
			Message:  fmt.Sprintf("invalid value: %d", m.Project.Width),
			Expected: "positive integer",
		})
	}
	if m.Project.Height < 0 {
		errs = append(errs, ValidationError{
			Field:    "project.height",
			Message:  fmt.Sprintf("invalid value: %d", m.Project.Height),
			Expected: "positive integer",
		})
	}

	if !strings.HasPrefix(m.Assets.Source, "http://") && !strings.HasPrefix(m.Assets.Source, "https://") {
		errs = append(errs, ValidationError{
			Field:    "assets.source",
			Message:  fmt.Sprintf("invalid value: %q", m.Assets.Source),
			Expected: "http(s) URL",
		})
	}

	for i, f := range m.Assets.Files {
		if f.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("assets.files[%d].name", i),
				Message: "required field is missing",
			})
		}
		if f.Path == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("assets.files[%d].path", i),
				Message: "required field is missing",
			})
		} else if escapesProject(f.Path) {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("assets.files[%d].path", i),
				Message:  fmt.Sprintf("path escapes the project: %s", f.Path),
				Expected: "relative path inside the project",
			})
		}
	}

	for _, event := range []string{EventPostInit, EventPostUpdate} {
		for i, h := range m.Hooks.GetHooks(event) {
			switch h.OnFailure {
			case "", "abort", "warn", "ignore":
			default:
				errs = append(errs, ValidationError{
					Field:    fmt.Sprintf("hooks.%s[%d].on_failure", event, i),
					Message:  fmt.Sprintf("invalid value: %s", h.OnFailure),
					Expected: "abort, warn, or ignore",
				})
			}
			if h.Timeout != "" {
				if _, err := time.ParseDuration(h.Timeout); err != nil {
					errs = append(errs, ValidationError{
						Field:    fmt.Sprintf("hooks.%s[%d].timeout", event, i),
						Message:  fmt.Sprintf("invalid duration: %s", h.Timeout),
						Expected: "Go duration such as 30s",
					})
				}
			}
		}
	}

	return errs
}

func escapesProject(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	return clean == ".." || strings.HasPrefix(clean, "../")
}
