// Package install scaffolds a Lancelot.js project and refreshes its library assets.
package install

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dondejvo/lancelot-cli/internal/config"
	lerrors "github.com/dondejvo/lancelot-cli/internal/errors"
	"github.com/dondejvo/lancelot-cli/internal/fetch"
	"github.com/dondejvo/lancelot-cli/internal/hooks"
	"github.com/dondejvo/lancelot-cli/internal/progress"
	"github.com/dondejvo/lancelot-cli/internal/util"
)

// Generated files, relative to the project root.
const (
	IndexHTML = "index.html"
	MainJS    = "src/main.js"
)

const (
	indexTemplate = "templates/index.html.tmpl"
	mainTemplate  = "templates/main.js.tmpl"
)

// AssetFetcher downloads a set of library assets, all or nothing.
type AssetFetcher interface {
	FetchAll(ctx context.Context, names []string) (map[string][]byte, error)
}

type Options struct {
	Width   int
	Height  int
	Title   string // <title> of index.html; manifest value or "Document" when empty
	Source  string // asset base URL; overrides manifest and environment
	Force   bool   // overwrite index.html and src/main.js
	DryRun  bool
	NoHooks bool

	// Fetcher defaults to an HTTP fetcher for the manifest's asset source.
	Fetcher AssetFetcher
	// Progress receives the download spinner; nil disables it.
	Progress io.Writer
	// HookOut receives hook output; defaults to stdout.
	HookOut io.Writer
	Now     func() time.Time
}

// Result contains information about what was done
type Result struct {
	Written      []string
	Skipped      []string
	Planned      []string
	Warnings     []string
	ManifestPath string
}

// Init scaffolds a project in targetDir: it downloads the library assets,
// renders index.html and src/main.js from kit, and writes lancelot.yaml.
// Existing index.html and src/main.js are kept unless opts.Force.
func Init(ctx context.Context, kit fs.FS, targetDir string, opts Options) (*Result, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, lerrors.NewValidationError(fmt.Sprintf(
			"width and height must be positive integers (got %d x %d)", opts.Width, opts.Height))
	}

	dir, err := util.ResolveTarget(targetDir)
	if err != nil {
		return nil, lerrors.NewFSErrorWithCause("invalid project directory", err)
	}

	existing, found, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, lerrors.NewConfigErrorWithCause("cannot read "+config.FileName, err)
	}

	m := config.Default(filepath.Base(dir), opts.Width, opts.Height)
	if found {
		m.Assets.Source = existing.Assets.Source
		m.Assets.Files = existing.Assets.Files
		m.Hooks = existing.Hooks
		if existing.Project.Title != "" {
			m.Project.Title = existing.Project.Title
		}
		if existing.Project.Name != "" {
			m.Project.Name = existing.Project.Name
		}
	}
	if opts.Title != "" {
		m.Project.Title = opts.Title
	}
	m.ApplyEnv(opts.Source)
	if err := validateManifest(m); err != nil {
		return nil, err
	}

	result := &Result{ManifestPath: config.Path(dir)}
	result.Warnings = sizeWarnings(opts.Width, opts.Height)

	generated := []string{IndexHTML, MainJS}
	if opts.DryRun {
		for _, a := range m.Assets.Files {
			result.Planned = append(result.Planned, a.Path)
		}
		for _, rel := range generated {
			if !opts.Force && util.Exists(filepath.Join(dir, filepath.FromSlash(rel))) {
				result.Skipped = append(result.Skipped, rel)
				continue
			}
			result.Planned = append(result.Planned, rel)
		}
		result.Planned = append(result.Planned, config.FileName)
		return result, nil
	}

	// Render before touching the network so a broken kit fails fast.
	index, err := render(kit, indexTemplate, m.Project)
	if err != nil {
		return nil, err
	}
	mainJS, err := render(kit, mainTemplate, m.Project)
	if err != nil {
		return nil, err
	}

	if err := installAssets(ctx, dir, m, opts, result); err != nil {
		return nil, err
	}

	files := map[string][]byte{IndexHTML: index, MainJS: mainJS}
	for _, rel := range generated {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if !opts.Force && util.Exists(path) {
			slog.Debug("keeping existing file", "path", rel)
			result.Skipped = append(result.Skipped, rel)
			continue
		}
		if err := util.WriteFileAtomic(path, files[rel], 0o644); err != nil {
			return nil, lerrors.NewFSErrorWithCause("write "+rel, err)
		}
		result.Written = append(result.Written, rel)
	}

	m.Assets.UpdatedAt = now(opts).UTC().Truncate(time.Second)
	if err := m.Save(result.ManifestPath); err != nil {
		return nil, lerrors.NewFSErrorWithCause("write "+config.FileName, err)
	}
	result.Written = append(result.Written, config.FileName)

	if !opts.NoHooks {
		env := map[string]string{
			"LANCELOT_WIDTH":  strconv.Itoa(opts.Width),
			"LANCELOT_HEIGHT": strconv.Itoa(opts.Height),
		}
		if err := hooks.NewHookRunner(m.Hooks, dir, opts.HookOut).Fire(ctx, config.EventPostInit, env); err != nil {
			return result, lerrors.NewGeneralErrorWithCause("post_init hook failed", err)
		}
	}

	return result, nil
}

// Update re-downloads the library assets of the project in targetDir. It
// never touches index.html or src/main.js. The manifest, when present, gets
// fresh checksums.
func Update(ctx context.Context, targetDir string, opts Options) (*Result, error) {
	dir, err := util.ResolveTarget(targetDir)
	if err != nil {
		return nil, lerrors.NewFSErrorWithCause("invalid project directory", err)
	}

	m, found, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, lerrors.NewConfigErrorWithCause("cannot read "+config.FileName, err)
	}
	m.ApplyEnv(opts.Source)
	if err := validateManifest(m); err != nil {
		return nil, err
	}

	result := &Result{}
	if found {
		result.ManifestPath = config.Path(dir)
	}

	if opts.DryRun {
		for _, a := range m.Assets.Files {
			result.Planned = append(result.Planned, a.Path)
		}
		if found {
			result.Planned = append(result.Planned, config.FileName)
		}
		return result, nil
	}

	if err := installAssets(ctx, dir, m, opts, result); err != nil {
		return nil, err
	}

	if found {
		m.Assets.UpdatedAt = now(opts).UTC().Truncate(time.Second)
		if err := m.Save(result.ManifestPath); err != nil {
			return nil, lerrors.NewFSErrorWithCause("write "+config.FileName, err)
		}
		result.Written = append(result.Written, config.FileName)
	}

	if !opts.NoHooks {
		if err := hooks.NewHookRunner(m.Hooks, dir, opts.HookOut).Fire(ctx, config.EventPostUpdate, nil); err != nil {
			return result, lerrors.NewGeneralErrorWithCause("post_update hook failed", err)
		}
	}

	return result, nil
}

// installAssets downloads every asset before writing any of them, so a
// failed download leaves the existing lib/ files untouched.
func installAssets(ctx context.Context, dir string, m *config.Manifest, opts Options, result *Result) error {
	f := opts.Fetcher
	if f == nil {
		f = fetch.New(m.Assets.Source)
	}

	names := make([]string, len(m.Assets.Files))
	for i, a := range m.Assets.Files {
		names[i] = a.Name
	}

	var spin *progress.Spinner
	if opts.Progress != nil {
		spin = progress.NewSpinner("Downloading "+strings.Join(names, ", "), opts.Progress)
		spin.Start()
	}
	bodies, err := f.FetchAll(ctx, names)
	if spin != nil {
		spin.Stop("")
	}
	if err != nil {
		return lerrors.NewNetworkErrorWithCause("cannot download library assets from "+m.Assets.Source, err)
	}

	for _, a := range m.Assets.Files {
		body := bodies[a.Name]
		path := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := util.WriteFileAtomic(path, body, 0o644); err != nil {
			return lerrors.NewFSErrorWithCause("write "+a.Path, err)
		}
		m.SetChecksum(a.Path, util.SHA256Hex(body))
		result.Written = append(result.Written, a.Path)
		slog.Debug("wrote asset", "path", a.Path, "bytes", len(body))
	}
	return nil
}

// render executes a kit template. HTML templates go through html/template so
// user-supplied values such as the title are escaped.
func render(kit fs.FS, name string, data config.ProjectConfig) ([]byte, error) {
	var tmpl interface {
		Execute(w io.Writer, data any) error
	}
	var err error
	if strings.HasSuffix(name, ".html.tmpl") {
		tmpl, err = htmltemplate.ParseFS(kit, name)
	} else {
		tmpl, err = template.ParseFS(kit, name)
	}
	if err != nil {
		return nil, fmt.Errorf("missing embedded template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func validateManifest(m *config.Manifest) error {
	errs := m.Validate()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return lerrors.NewConfigError("invalid " + config.FileName + ": " + strings.Join(msgs, "; "))
}

func sizeWarnings(width, height int) []string {
	var out []string
	if width < config.RecommendedMinSize {
		out = append(out, fmt.Sprintf("width %d is below the recommended %d pixels", width, config.RecommendedMinSize))
	}
	if height < config.RecommendedMinSize {
		out = append(out, fmt.Sprintf("height %d is below the recommended %d pixels", height, config.RecommendedMinSize))
	}
	return out
}

func now(opts Options) time.Time {
	if opts.Now != nil {
		return opts.Now()
	}
	return time.Now()
}

// Uninstall removes the files lancelot manages from targetDir. User code in
// src/ other than main.js is left alone.
func Uninstall(targetDir string, keepSources bool) ([]string, error) {
	dir, err := util.ResolveTarget(targetDir)
	if err != nil {
		return nil, lerrors.NewFSErrorWithCause("invalid project directory", err)
	}
	m, _, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, lerrors.NewConfigErrorWithCause("cannot read "+config.FileName, err)
	}
	if err := validateManifest(m); err != nil {
		return nil, err
	}

	var targets []string
	for _, a := range m.Assets.Files {
		targets = append(targets, a.Path)
	}
	if !keepSources {
		targets = append(targets, IndexHTML, MainJS)
	}
	targets = append(targets, config.FileName)

	var removed []string
	for _, rel := range targets {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, lerrors.NewFSErrorWithCause("remove "+rel, err)
		}
		removed = append(removed, rel)
	}
	// Drop lib/ and src/ only if nothing else lives there.
	for _, sub := range []string{"lib", "src"} {
		os.Remove(filepath.Join(dir, sub))
	}
	return removed, nil
}
