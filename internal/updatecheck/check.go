// Package updatecheck reports whether a project's library assets differ from
// the ones currently published at the asset source.
package updatecheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dondejvo/lancelot-cli/internal/config"
	"github.com/dondejvo/lancelot-cli/internal/fetch"
	"github.com/dondejvo/lancelot-cli/internal/util"
)

// Fetcher downloads the published assets.
type Fetcher interface {
	FetchAll(ctx context.Context, names []string) (map[string][]byte, error)
}

type Options struct {
	Source  string // overrides manifest and environment
	Fetcher Fetcher
	Now     func() time.Time
}

// AssetStatus compares one local asset with its published version.
type AssetStatus struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Local   string `json:"local_sha256,omitempty"`
	Remote  string `json:"remote_sha256,omitempty"`
	Missing bool   `json:"missing"`
	Changed bool   `json:"changed"`
}

type Result struct {
	Source          string        `json:"source"`
	Assets          []AssetStatus `json:"assets"`
	UpdateAvailable bool          `json:"update_available"`
	CheckedAt       time.Time     `json:"checked_at"`
	Error           string        `json:"error,omitempty"`
}

// Check downloads the published assets and compares their checksums with the
// files in projectDir. Failures are reported in Result.Error.
func Check(ctx context.Context, projectDir string, opts Options) Result {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	res := Result{CheckedAt: now()}

	dir, err := util.ResolveTarget(projectDir)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	m, _, err := config.LoadOrDefault(dir)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	m.ApplyEnv(opts.Source)
	res.Source = m.Assets.Source
	if errs := m.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		res.Error = "invalid " + config.FileName + ": " + strings.Join(msgs, "; ")
		return res
	}

	f := opts.Fetcher
	if f == nil {
		f = fetch.New(m.Assets.Source)
	}

	names := make([]string, len(m.Assets.Files))
	for i, a := range m.Assets.Files {
		names[i] = a.Name
	}
	remote, err := f.FetchAll(ctx, names)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	for _, a := range m.Assets.Files {
		st := AssetStatus{
			Name:   a.Name,
			Path:   a.Path,
			Remote: util.SHA256Hex(remote[a.Name]),
		}
		local, err := util.FileSHA256(filepath.Join(dir, filepath.FromSlash(a.Path)))
		switch {
		case errors.Is(err, os.ErrNotExist):
			st.Missing = true
		case err != nil:
			res.Error = err.Error()
			return res
		default:
			st.Local = local
		}
		res.Assets = append(res.Assets, st)
	}
	return finalize(res)
}

func finalize(res Result) Result {
	res.UpdateAvailable = false
	for i := range res.Assets {
		a := &res.Assets[i]
		a.Changed = a.Missing || a.Local != a.Remote
		if a.Changed {
			res.UpdateAvailable = true
		}
	}
	return res
}
