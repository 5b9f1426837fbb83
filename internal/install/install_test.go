package install

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	lancelot "github.com/dondejvo/lancelot-cli"
	"github.com/dondejvo/lancelot-cli/internal/config"
	lerrors "github.com/dondejvo/lancelot-cli/internal/errors"
)

// createMinimalMockFS creates a mock kit with the two templates
func createMinimalMockFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/index.html.tmpl": &fstest.MapFile{Data: []byte("<title>{{.Title}}</title>\n")},
		"templates/main.js.tmpl":    &fstest.MapFile{Data: []byte("width: {{.Width}},\nheight: {{.Height}},\n")},
	}
}

type assetServer struct {
	*httptest.Server
	hits atomic.Int32
	fail atomic.Bool
}

// newAssetServer serves core.js and core.css, or 500s once fail is set.
func newAssetServer(t *testing.T, js, css string) *assetServer {
	t.Helper()
	s := &assetServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if s.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/core.js":
			w.Write([]byte(js))
		case "/core.css":
			w.Write([]byte(css))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestInit_CreatesProjectFiles(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "class Vector {}", "#game-container {}")

	result, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width:  800,
		Height: 600,
		Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if result == nil {
		t.Fatal("Init returned nil result")
	}

	for _, rel := range []string{"lib/core.js", "lib/core.css", "src/main.js", "index.html", "lancelot.yaml"} {
		if _, err := os.Stat(filepath.Join(tmpDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("%s was not created: %v", rel, err)
		}
	}

	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.js")); got != "class Vector {}" {
		t.Errorf("lib/core.js = %q", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.css")); got != "#game-container {}" {
		t.Errorf("lib/core.css = %q", got)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("nothing should be skipped in a fresh directory, got %v", result.Skipped)
	}
}

func TestInit_SubstitutesDimensions(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	_, err := Init(context.Background(), lancelot.KitFS, tmpDir, Options{
		Width:  1024,
		Height: 768,
		Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	mainJS := readFile(t, filepath.Join(tmpDir, "src", "main.js"))
	if !strings.Contains(mainJS, "width: 1024,") {
		t.Errorf("main.js missing width substitution:\n%s", mainJS)
	}
	if !strings.Contains(mainJS, "height: 768,") {
		t.Errorf("main.js missing height substitution:\n%s", mainJS)
	}
	if strings.Contains(mainJS, "{{") {
		t.Errorf("main.js contains unrendered template markers:\n%s", mainJS)
	}

	index := readFile(t, filepath.Join(tmpDir, "index.html"))
	if !strings.Contains(index, "<title>Document</title>") {
		t.Errorf("index.html should use the default title:\n%s", index)
	}
}

func TestInit_CustomTitle(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 400, Height: 400, Title: "Space Invaders", Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := readFile(t, filepath.Join(tmpDir, "index.html")); !strings.Contains(got, "Space Invaders") {
		t.Errorf("index.html = %q", got)
	}
}

func TestInit_WritesManifest(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	result, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL,
		Now: func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	m, err := config.Load(result.ManifestPath)
	if err != nil {
		t.Fatalf("manifest not readable: %v", err)
	}
	if m.Project.Width != 800 || m.Project.Height != 600 {
		t.Errorf("manifest dimensions = %dx%d", m.Project.Width, m.Project.Height)
	}
	if m.Project.Name != filepath.Base(tmpDir) {
		t.Errorf("manifest name = %q", m.Project.Name)
	}
	if m.Assets.Source != srv.URL+"/" {
		t.Errorf("manifest source = %q", m.Assets.Source)
	}
	if !m.Assets.UpdatedAt.Equal(fixed) {
		t.Errorf("UpdatedAt = %v, want %v", m.Assets.UpdatedAt, fixed)
	}
	for _, f := range m.Assets.Files {
		if f.SHA256 == "" {
			t.Errorf("asset %s has no checksum", f.Path)
		}
	}
}

func TestInit_DotPath(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	_, err := Init(context.Background(), createMinimalMockFS(), ".", Options{
		Width: 800, Height: 600, Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init with '.' failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "index.html")); err != nil {
		t.Error("index.html was not created")
	}
}

func TestInit_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 600},
		{"negative height", 800, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Init(context.Background(), createMinimalMockFS(), t.TempDir(), Options{
				Width: tt.width, Height: tt.height, Source: "http://127.0.0.1:1/",
			})
			if !lerrors.IsValidationError(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInit_SmallDimensionsWarn(t *testing.T) {
	srv := newAssetServer(t, "js", "css")

	result, err := Init(context.Background(), createMinimalMockFS(), t.TempDir(), Options{
		Width: 200, Height: 600, Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "width 200") {
		t.Errorf("expected one width warning, got %v", result.Warnings)
	}
}

func TestInit_NonExistentDirectory(t *testing.T) {
	_, err := Init(context.Background(), createMinimalMockFS(), "/nonexistent/path/that/does/not/exist", Options{
		Width: 800, Height: 600,
	})
	if !lerrors.IsFSError(err) {
		t.Errorf("expected filesystem error, got %v", err)
	}
}

func TestInit_KeepsExistingSourcesWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	os.MkdirAll(filepath.Join(tmpDir, "src"), 0o755)
	os.WriteFile(filepath.Join(tmpDir, "src", "main.js"), []byte("// my game"), 0o644)

	result, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := readFile(t, filepath.Join(tmpDir, "src", "main.js")); got != "// my game" {
		t.Errorf("existing main.js was overwritten: %q", got)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != MainJS {
		t.Errorf("Skipped = %v, want [%s]", result.Skipped, MainJS)
	}
}

func TestInit_ForceOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("old"), 0o644)

	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL, Force: true,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := readFile(t, filepath.Join(tmpDir, "index.html")); got == "old" {
		t.Error("index.html should be overwritten with --force")
	}
}

func TestInit_PreservesManifestHooks(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	existing := config.Default("kept-name", 100, 100)
	existing.Hooks.PostUpdate = []config.HookDef{{Command: "echo updated"}}
	existing.Save(config.Path(tmpDir))

	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 640, Height: 480, Source: srv.URL,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	m, err := config.Load(config.Path(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	if m.Project.Name != "kept-name" {
		t.Errorf("Name = %q, want kept-name", m.Project.Name)
	}
	if m.Project.Width != 640 {
		t.Errorf("Width = %d, want 640", m.Project.Width)
	}
	if len(m.Hooks.PostUpdate) != 1 {
		t.Errorf("hooks were dropped: %+v", m.Hooks)
	}
}

func TestInit_DryRunWritesNothing(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	result, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL, DryRun: true,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if srv.hits.Load() != 0 {
		t.Errorf("dry run should not hit the network, got %d requests", srv.hits.Load())
	}
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("dry run should not write files, found %d entries", len(entries))
	}
	want := []string{"lib/core.js", "lib/core.css", "index.html", "src/main.js", "lancelot.yaml"}
	if strings.Join(result.Planned, ",") != strings.Join(want, ",") {
		t.Errorf("Planned = %v, want %v", result.Planned, want)
	}
}

func TestInit_FetchFailureWritesNothing(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	srv.fail.Store(true)

	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL,
	})
	if !lerrors.IsNetworkError(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("failed init should leave the directory empty, found %d entries", len(entries))
	}
}

func TestInit_RunsPostInitHook(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no POSIX shell")
	}
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	m := config.Default("hooked", 1, 1)
	m.Hooks.PostInit = []config.HookDef{{Command: "echo $LANCELOT_WIDTH > hook.txt", OnFailure: "abort"}}
	m.Save(config.Path(tmpDir))

	var out strings.Builder
	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL, HookOut: &out,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := strings.TrimSpace(readFile(t, filepath.Join(tmpDir, "hook.txt"))); got != "800" {
		t.Errorf("hook saw width %q, want 800", got)
	}
}

func TestInit_NoHooks(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	m := config.Default("hooked", 1, 1)
	m.Hooks.PostInit = []config.HookDef{{Command: "touch hook.txt"}}
	m.Save(config.Path(tmpDir))

	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL, NoHooks: true,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "hook.txt")); err == nil {
		t.Error("hook should not run with NoHooks")
	}
}

func TestUpdate_OnlyTouchesAssets(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "v1.js", "v1.css")

	if _, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL,
	}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// The user edits their sources after init.
	os.WriteFile(filepath.Join(tmpDir, "src", "main.js"), []byte("// edited"), 0o644)
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<!-- edited -->"), 0o644)

	srv2 := newAssetServer(t, "v2.js", "v2.css")
	result, err := Update(context.Background(), tmpDir, Options{Source: srv2.URL})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.js")); got != "v2.js" {
		t.Errorf("lib/core.js = %q, want v2.js", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.css")); got != "v2.css" {
		t.Errorf("lib/core.css = %q, want v2.css", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "src", "main.js")); got != "// edited" {
		t.Errorf("update touched src/main.js: %q", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "index.html")); got != "<!-- edited -->" {
		t.Errorf("update touched index.html: %q", got)
	}
	for _, w := range result.Written {
		if w == IndexHTML || w == MainJS {
			t.Errorf("update reported writing %s", w)
		}
	}
}

func TestUpdate_WithoutManifest(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	result, err := Update(context.Background(), tmpDir, Options{Source: srv.URL})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if result.ManifestPath != "" {
		t.Errorf("no manifest should be reported, got %q", result.ManifestPath)
	}
	if _, err := os.Stat(config.Path(tmpDir)); err == nil {
		t.Error("update must not create a manifest")
	}
	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.js")); got != "js" {
		t.Errorf("lib/core.js = %q", got)
	}
}

func TestUpdate_RefreshesChecksums(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "v1", "v1")
	if _, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{Width: 800, Height: 600, Source: srv.URL}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	before, _ := config.Load(config.Path(tmpDir))

	srv2 := newAssetServer(t, "v2", "v2")
	if _, err := Update(context.Background(), tmpDir, Options{Source: srv2.URL}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	after, _ := config.Load(config.Path(tmpDir))

	if before.Assets.Files[0].SHA256 == after.Assets.Files[0].SHA256 {
		t.Error("checksum should change after update")
	}
}

func TestUpdate_FailurePreservesExistingAssets(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "good.js", "good.css")
	if _, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{Width: 800, Height: 600, Source: srv.URL}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	srv.fail.Store(true)
	_, err := Update(context.Background(), tmpDir, Options{})
	if !lerrors.IsNetworkError(err) {
		t.Fatalf("expected network error, got %v", err)
	}

	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.js")); got != "good.js" {
		t.Errorf("lib/core.js changed after failed update: %q", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "lib", "core.css")); got != "good.css" {
		t.Errorf("lib/core.css changed after failed update: %q", got)
	}
}

func TestUpdate_InvalidManifest(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(config.Path(tmpDir), []byte("assets: [broken"), 0o644)

	_, err := Update(context.Background(), tmpDir, Options{})
	if !lerrors.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestUpdate_DryRun(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	result, err := Update(context.Background(), tmpDir, Options{Source: srv.URL, DryRun: true})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if srv.hits.Load() != 0 {
		t.Errorf("dry run should not hit the network")
	}
	if len(result.Planned) != 2 {
		t.Errorf("Planned = %v, want the two assets", result.Planned)
	}
}

func TestUninstall(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	if _, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{Width: 800, Height: 600, Source: srv.URL}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	os.WriteFile(filepath.Join(tmpDir, "src", "player.js"), []byte("// mine"), 0o644)

	removed, err := Uninstall(tmpDir, false)
	if err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if len(removed) != 5 {
		t.Errorf("removed = %v, want 5 files", removed)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "lib")); err == nil {
		t.Error("empty lib/ should be removed")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "src", "player.js")); err != nil {
		t.Error("user files in src/ must survive")
	}
}

func TestUninstall_KeepSources(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")
	if _, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{Width: 800, Height: 600, Source: srv.URL}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := Uninstall(tmpDir, true); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "src", "main.js")); err != nil {
		t.Error("src/main.js should be kept")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "lib", "core.js")); err == nil {
		t.Error("lib/core.js should be removed")
	}
}

func TestUninstall_RejectsPathsOutsideProject(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "game")
	if err := os.Mkdir(projDir, 0o755); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"parent relative", "../notes.txt"},
		{"absolute", outside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := config.Default("game", 800, 600)
			m.Assets.Files = append(m.Assets.Files, config.AssetFile{Name: "notes.txt", Path: tt.path})
			if err := m.Save(config.Path(projDir)); err != nil {
				t.Fatal(err)
			}

			removed, err := Uninstall(projDir, true)
			if !lerrors.IsConfigError(err) {
				t.Errorf("expected config error, got %v (removed %v)", err, removed)
			}
			if _, err := os.Stat(outside); err != nil {
				t.Errorf("file outside the project was removed: %v", err)
			}
			if _, err := os.Stat(config.Path(projDir)); err != nil {
				t.Errorf("%s should survive a rejected uninstall: %v", config.FileName, err)
			}
		})
	}
}

func TestInit_EscapesTitle(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newAssetServer(t, "js", "css")

	_, err := Init(context.Background(), createMinimalMockFS(), tmpDir, Options{
		Width: 800, Height: 600, Source: srv.URL, Title: "</title><script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	index := readFile(t, filepath.Join(tmpDir, IndexHTML))
	if strings.Contains(index, "<script>") {
		t.Errorf("title was not escaped:\n%s", index)
	}
	if !strings.Contains(index, "&lt;/title&gt;&lt;script&gt;") {
		t.Errorf("expected escaped title, got:\n%s", index)
	}
}
