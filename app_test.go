package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"formula-editor/internal/types"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// fakeDialogs returns canned selections and records the options it was shown.
type fakeDialogs struct {
	selection string
	err       error
	lastOpen  runtime.OpenDialogOptions
	lastSave  runtime.SaveDialogOptions
}

func (f *fakeDialogs) OpenFile(_ context.Context, opts runtime.OpenDialogOptions) (string, error) {
	f.lastOpen = opts
	return f.selection, f.err
}

func (f *fakeDialogs) SaveFile(_ context.Context, opts runtime.SaveDialogOptions) (string, error) {
	f.lastSave = opts
	return f.selection, f.err
}

func newTestApp(t *testing.T) (*App, *fakeDialogs) {
	t.Helper()
	t.Setenv("FORMULA_EDITOR_LOCALE", "")

	app, err := NewAppWithConfig(filepath.Join(t.TempDir(), "config", "config.json"))
	if err != nil {
		t.Fatalf("NewAppWithConfig() returned error: %v", err)
	}
	dialogs := &fakeDialogs{}
	app.dialogs = dialogs
	app.startup(context.Background())
	t.Cleanup(func() { app.shutdown(context.Background()) })
	return app, dialogs
}

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app == nil {
		t.Fatal("NewApp() returned nil")
	}
	if app.previewer == nil || app.dialogs == nil {
		t.Error("NewApp() should wire previewer and dialogs")
	}
}

func TestApp_Startup(t *testing.T) {
	app, _ := newTestApp(t)

	if app.ctx == nil {
		t.Error("Context was not set")
	}
	if app.config == nil {
		t.Error("ConfigManager should be initialized after startup")
	}
	if app.settings == nil {
		t.Error("Settings should be initialized after startup")
	}
	if filepath.Dir(app.settings.GetFilePath()) != filepath.Dir(app.config.GetConfigPath()) {
		t.Error("settings should live next to the config file")
	}
}

func TestApp_ReadWriteJSONFile(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "formulas.json")

	if err := app.WriteJSONFile(path, `[{"latex":"x"}]`); err != nil {
		t.Fatalf("WriteJSONFile failed: %v", err)
	}
	if err := app.WriteJSONFile(path, `[{"latex":"y"}]`); err != nil {
		t.Fatalf("WriteJSONFile failed: %v", err)
	}

	content, err := app.ReadJSONFile(path)
	if err != nil {
		t.Fatalf("ReadJSONFile failed: %v", err)
	}
	if content != `[{"latex":"y"}]` {
		t.Errorf("unexpected content %q", content)
	}

	backups, err := os.ReadDir(filepath.Join(filepath.Dir(app.config.GetConfigPath()), "backups"))
	if err != nil {
		t.Fatalf("backup directory missing: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected one backup of the replaced file, got %d", len(backups))
	}

	recent := app.GetRecentFiles()
	if len(recent) != 1 || recent[0].Path != path {
		t.Errorf("unexpected recent files %+v", recent)
	}
}

func TestApp_ReadJSONFile_BOM(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "bom.json")
	if err := os.WriteFile(path, []byte("\xef\xbb\xbf[]"), 0644); err != nil {
		t.Fatal(err)
	}

	content, err := app.ReadJSONFile(path)
	if err != nil {
		t.Fatalf("ReadJSONFile failed: %v", err)
	}
	if content != "[]" {
		t.Errorf("BOM should be stripped, got %q", content)
	}
}

func TestApp_ReadJSONFile_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.ReadJSONFile("")
	if !types.IsCode(err, types.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty path, got %v", err)
	}

	_, err = app.ReadJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	if !types.IsCode(err, types.ErrFileIO) {
		t.Errorf("expected FILE_IO_ERROR, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "读取文件失败") {
		t.Errorf("expected localized message, got %q", err.Error())
	}

	if err := app.WriteJSONFile(filepath.Join(t.TempDir(), "no", "dir", "f.json"), "[]"); !types.IsCode(err, types.ErrFileIO) {
		t.Errorf("expected FILE_IO_ERROR on write, got %v", err)
	}
}

func TestApp_Dialogs(t *testing.T) {
	app, dialogs := newTestApp(t)
	dialogs.selection = "/docs/formulas.json"

	got, err := app.OpenFileDialog()
	if err != nil || got != "/docs/formulas.json" {
		t.Errorf("OpenFileDialog() = %q, %v", got, err)
	}
	if len(dialogs.lastOpen.Filters) != 1 || dialogs.lastOpen.Filters[0].Pattern != "*.json" {
		t.Errorf("unexpected open filters %+v", dialogs.lastOpen.Filters)
	}

	if _, err := app.SaveFileDialog(); err != nil {
		t.Fatal(err)
	}
	if dialogs.lastSave.DefaultFilename != DefaultJSONFileName {
		t.Errorf("unexpected default file name %q", dialogs.lastSave.DefaultFilename)
	}

	dialogs.selection, dialogs.err = "", errors.New("no display")
	got, err = app.OpenFileDialog()
	if err != nil || got != "" {
		t.Errorf("dialog failure should look like a cancel, got %q, %v", got, err)
	}
}

func TestApp_ExportLatexFile(t *testing.T) {
	app, dialogs := newTestApp(t)
	out := filepath.Join(t.TempDir(), "out.tex")
	dialogs.selection = out

	content := app.FormatLatex([]types.FormulaItem{{Latex: "E=mc^2"}})
	path, err := app.ExportLatexFile(content)
	if err != nil {
		t.Fatalf("ExportLatexFile failed: %v", err)
	}
	if path != out {
		t.Errorf("expected %s, got %s", out, path)
	}
	if dialogs.lastSave.DefaultFilename != DefaultLatexFileName || dialogs.lastSave.Filters[0].Pattern != "*.tex" {
		t.Errorf("unexpected dialog options %+v", dialogs.lastSave)
	}

	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != content {
		t.Error("exported content differs")
	}
}

func TestApp_ExportMarkdownFile(t *testing.T) {
	app, dialogs := newTestApp(t)

	// Cancel returns an empty path and writes nothing.
	path, err := app.ExportMarkdownFile("# x")
	if err != nil || path != "" {
		t.Errorf("cancelled export = %q, %v", path, err)
	}
	if dialogs.lastSave.DefaultFilename != DefaultMarkdownFileName {
		t.Errorf("unexpected default name %q", dialogs.lastSave.DefaultFilename)
	}

	dialogs.selection = filepath.Join(t.TempDir(), "missing", "out.md")
	_, err = app.ExportMarkdownFile("# x")
	if !types.IsCode(err, types.ErrFileIO) {
		t.Errorf("expected FILE_IO_ERROR, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "写入 Markdown 文件失败") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestApp_NormalizeAndFormat(t *testing.T) {
	app, _ := newTestApp(t)

	entries, err := app.NormalizeFormulas(`[{"latex":" a^2 ","note":"n_1"},{"latex":""}]`)
	if err != nil {
		t.Fatalf("NormalizeFormulas failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	items := types.ItemsFromEntries(entries)
	if md := app.FormatMarkdown(items); !strings.HasPrefix(md, "### 公式 1") {
		t.Errorf("unexpected markdown %q", md)
	}
	if tex := app.FormatLatex(items); !strings.Contains(tex, `\textbf{n\_1}`) {
		t.Errorf("note should be escaped in LaTeX: %q", tex)
	}
	html, err := app.PreviewMarkdown(items)
	if err != nil || !strings.Contains(html, `class="math display"`) {
		t.Errorf("PreviewMarkdown() = %q, %v", html, err)
	}

	_, err = app.NormalizeFormulas(`{"categories":[]}`)
	if !types.IsCode(err, types.ErrWrongKind) {
		t.Errorf("expected WRONG_KIND, got %v", err)
	}

	lib, err := app.NormalizeTemplates(`[{"name":"A"}]`)
	if err != nil || lib.SelectedCategoryID != "category-1-1" {
		t.Errorf("NormalizeTemplates() = %+v, %v", lib, err)
	}
}

func TestApp_ThemePreference(t *testing.T) {
	app, _ := newTestApp(t)

	if app.GetThemePreference() != "system" {
		t.Errorf("unexpected default theme %q", app.GetThemePreference())
	}
	if err := app.SetThemePreference("dark"); err != nil {
		t.Fatalf("SetThemePreference failed: %v", err)
	}
	if app.GetThemePreference() != "dark" {
		t.Error("theme not stored")
	}
	if err := app.SetThemePreference("neon"); !types.IsCode(err, types.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestApp_WindowTitleAndSystemInfo(t *testing.T) {
	app, _ := newTestApp(t)

	if err := app.SetWindowTitle("formulas.json - MathLive"); err != nil {
		t.Fatal(err)
	}
	if app.title != "formulas.json - MathLive" {
		t.Errorf("title not recorded: %q", app.title)
	}

	want := "OS: " + goruntime.GOOS + ", Arch: " + goruntime.GOARCH
	if got := app.GetSystemInfo(); got != want {
		t.Errorf("GetSystemInfo() = %q, want %q", got, want)
	}
}

func TestApp_FileExists(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "x.json")

	if app.FileExists(path) || app.FileExists("") {
		t.Error("missing file reported as existing")
	}
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	if !app.FileExists(path) {
		t.Error("existing file not found")
	}
}

func TestApp_GetAppConfigDir(t *testing.T) {
	app, _ := newTestApp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir, err := app.GetAppConfigDir()
	if err != nil {
		t.Fatalf("GetAppConfigDir failed: %v", err)
	}
	if filepath.Base(dir) != "formula-editor" {
		t.Errorf("unexpected config dir %s", dir)
	}
}

func TestApp_BindTemplateLibrary(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "templates.json")
	if err := os.WriteFile(path, []byte(`{"categories":[{"id":"a","name":"A"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	lib, err := app.BindTemplateLibrary(path)
	if err != nil {
		t.Fatalf("BindTemplateLibrary failed: %v", err)
	}
	if lib.SelectedCategoryID != "a" {
		t.Errorf("unexpected library %+v", lib)
	}
	if app.config.GetBoundTemplatePath() != path {
		t.Error("binding not persisted")
	}
	if recent := app.GetRecentFiles(); len(recent) == 0 || recent[0].Kind != types.KindTemplates {
		t.Errorf("bound library should be recorded as a template file: %+v", recent)
	}

	// An edit on disk is picked up by the watcher.
	if err := os.WriteFile(path, []byte(`[{"id":"b"},{"id":"c"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if l := app.GetTemplateLibrary(); l != nil && len(l.Categories) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("library was not reloaded after the file changed")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := app.UnbindTemplateLibrary(); err != nil {
		t.Fatalf("UnbindTemplateLibrary failed: %v", err)
	}
	if app.GetTemplateLibrary() != nil || app.config.GetBoundTemplatePath() != "" {
		t.Error("library still bound")
	}
}

func TestApp_BindTemplateLibrary_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	if _, err := app.BindTemplateLibrary(""); !types.IsCode(err, types.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := app.BindTemplateLibrary(path); !types.IsCode(err, types.ErrInvalidJSON) {
		t.Errorf("expected INVALID_JSON, got %v", err)
	}
	if app.config.GetBoundTemplatePath() != "" {
		t.Error("a broken library must not be bound")
	}
}

func TestApp_RestoresBindingOnStartup(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "templates.json")
	if err := os.WriteFile(libPath, []byte(`[{"id":"x"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config.json")

	first, err := NewAppWithConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	first.dialogs = &fakeDialogs{}
	first.startup(context.Background())
	if _, err := first.BindTemplateLibrary(libPath); err != nil {
		t.Fatal(err)
	}
	first.shutdown(context.Background())

	second, err := NewAppWithConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	second.startup(context.Background())
	defer second.shutdown(context.Background())

	if lib := second.GetTemplateLibrary(); lib == nil || lib.SelectedCategoryID != "x" {
		t.Errorf("binding not restored: %+v", lib)
	}
}

func TestApp_ClearRecentFiles(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "f.json")
	if err := app.WriteJSONFile(path, "[]"); err != nil {
		t.Fatal(err)
	}
	if err := app.ClearRecentFiles(); err != nil {
		t.Fatal(err)
	}
	if len(app.GetRecentFiles()) != 0 {
		t.Error("recent files not cleared")
	}
}

func TestApp_NilConfigIsSafe(t *testing.T) {
	app := NewApp()
	if got := app.GetRecentFiles(); got == nil || len(got) != 0 {
		t.Errorf("expected empty recent files, got %v", got)
	}
	if err := app.ClearRecentFiles(); err != nil {
		t.Error(err)
	}
	if app.GetThemePreference() != "system" {
		t.Error("expected system theme without settings")
	}
	if app.GetLocale() != "zh" || app.GetSettings().Locale != "zh" {
		t.Error("expected default locale without config")
	}
	if _, err := app.SetLocale("en"); !types.IsCode(err, types.ErrConfig) {
		t.Errorf("expected CONFIG_ERROR, got %v", err)
	}
	if backups, err := app.ListBackups("f.json"); err != nil || len(backups) != 0 {
		t.Errorf("expected no backups without config, got %v, %v", backups, err)
	}
}

func TestApp_Locale(t *testing.T) {
	app, _ := newTestApp(t)

	if app.GetLocale() != "zh" {
		t.Errorf("default locale = %q, want zh", app.GetLocale())
	}
	got, err := app.SetLocale("en-US")
	if err != nil {
		t.Fatalf("SetLocale failed: %v", err)
	}
	if got != "en" || app.GetLocale() != "en" || app.GetSettings().Locale != "en" {
		t.Errorf("locale not applied: returned %q, settings %+v", got, app.GetSettings())
	}

	// Newly localized output follows the stored locale.
	_, err = app.ReadJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.HasPrefix(err.Error(), "Failed to read file") {
		t.Errorf("expected English message, got %v", err)
	}

	reloaded, err := NewAppWithConfig(app.config.GetConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	reloaded.startup(context.Background())
	defer reloaded.shutdown(context.Background())
	if reloaded.GetLocale() != "en" {
		t.Error("locale not persisted")
	}
}

func TestApp_ListAndRestoreBackups(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "formulas.json")

	for _, v := range []string{`[{"latex":"v1"}]`, `[{"latex":"v2"}]`, `[{"latex":"v3"}]`} {
		if err := app.WriteJSONFile(path, v); err != nil {
			t.Fatalf("WriteJSONFile failed: %v", err)
		}
	}

	backups, err := app.ListBackups(path)
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %v", backups)
	}

	// backups[1] is the oldest, holding v1.
	if err := app.RestoreBackup(backups[1], path); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != `[{"latex":"v1"}]` {
		t.Errorf("restored content %q", content)
	}

	other := filepath.Join(t.TempDir(), "other.json")
	if err := os.WriteFile(other, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := app.RestoreBackup(other, path); !types.IsCode(err, types.ErrFileIO) {
		t.Errorf("restoring a file that is not a backup should fail, got %v", err)
	}
	if _, err := app.ListBackups(""); !types.IsCode(err, types.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestApp_SameNamedFilesKeepSeparateBackups(t *testing.T) {
	app, _ := newTestApp(t)
	a := filepath.Join(t.TempDir(), "formulas.json")
	b := filepath.Join(t.TempDir(), "formulas.json")

	for _, step := range []struct{ path, content string }{
		{a, "A-original"}, {b, "B-original"}, {a, "A-edited"}, {b, "B-edited"},
	} {
		if err := app.WriteJSONFile(step.path, step.content); err != nil {
			t.Fatalf("WriteJSONFile failed: %v", err)
		}
	}

	for path, want := range map[string]string{a: "A-original", b: "B-original"} {
		backups, err := app.ListBackups(path)
		if err != nil || len(backups) != 1 {
			t.Fatalf("ListBackups(%s) = %v, %v", path, backups, err)
		}
		content, err := os.ReadFile(backups[0])
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != want {
			t.Errorf("backup of %s holds %q, want %q", path, content, want)
		}
	}
}

func TestApp_RecentFileKind(t *testing.T) {
	app, _ := newTestApp(t)
	dir := t.TempDir()
	lib := filepath.Join(dir, "templates.json")
	doc := filepath.Join(dir, "formulas.json")
	broken := filepath.Join(dir, "broken.json")
	for path, content := range map[string]string{
		lib:    `{"categories":[{"id":"a"}]}`,
		doc:    `[{"latex":"x"}]`,
		broken: `{`,
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := app.ReadJSONFile(path); err != nil {
			t.Fatalf("ReadJSONFile(%s) failed: %v", path, err)
		}
	}

	kinds := map[string]types.DocumentKind{}
	for _, item := range app.GetRecentFiles() {
		kinds[item.Path] = item.Kind
	}
	if kinds[lib] != types.KindTemplates {
		t.Errorf("template library recorded as %q", kinds[lib])
	}
	if kinds[doc] != types.KindFormulas {
		t.Errorf("formula collection recorded as %q", kinds[doc])
	}
	if kinds[broken] != "" {
		t.Errorf("unparseable file recorded as %q", kinds[broken])
	}
}

func TestApp_ConcurrentBindKeepsOneWatcher(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "templates.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	baseline := goruntime.NumGoroutine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := app.BindTemplateLibrary(path); err != nil {
				t.Errorf("BindTemplateLibrary failed: %v", err)
			}
		}()
	}
	wg.Wait()

	app.mu.RLock()
	bound := app.watcher != nil
	app.mu.RUnlock()
	if !bound {
		t.Fatal("expected an active watcher")
	}

	if err := app.UnbindTemplateLibrary(); err != nil {
		t.Fatal(err)
	}

	// Every replaced watcher was stopped, so its goroutines are gone.
	deadline := time.Now().Add(5 * time.Second)
	for goruntime.NumGoroutine() > baseline {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines leaked: %d running, %d before binding", goruntime.NumGoroutine(), baseline)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
