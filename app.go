package main

import (
	"context"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sync"

	"formula-editor/internal/config"
	"formula-editor/internal/fileio"
	"formula-editor/internal/formula"
	"formula-editor/internal/jsonvalue"
	"formula-editor/internal/locale"
	"formula-editor/internal/logger"
	"formula-editor/internal/render"
	"formula-editor/internal/settings"
	"formula-editor/internal/templates"
	"formula-editor/internal/types"
	"formula-editor/internal/watcher"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Event names for frontend communication
const (
	EventTemplatesChanged = "templates-changed"
	EventTemplatesError   = "templates-error"
)

// Default file names offered by the save dialogs
const (
	DefaultJSONFileName     = "formulas.json"
	DefaultLatexFileName    = "formulas.tex"
	DefaultMarkdownFileName = "formulas.md"
)

// dialogProvider shows native file dialogs. It returns "" when the user
// cancels.
type dialogProvider interface {
	OpenFile(ctx context.Context, opts runtime.OpenDialogOptions) (string, error)
	SaveFile(ctx context.Context, opts runtime.SaveDialogOptions) (string, error)
}

type wailsDialogs struct{}

func (wailsDialogs) OpenFile(ctx context.Context, opts runtime.OpenDialogOptions) (string, error) {
	return runtime.OpenFileDialog(ctx, opts)
}

func (wailsDialogs) SaveFile(ctx context.Context, opts runtime.SaveDialogOptions) (string, error) {
	return runtime.SaveFileDialog(ctx, opts)
}

// App is the main Wails application controller.
// It exposes the normalizers and renderers to the frontend and owns the
// file, dialog and configuration plumbing around them.
type App struct {
	ctx       context.Context
	config    *config.ConfigManager
	settings  *settings.Manager
	previewer *render.Previewer
	dialogs   dialogProvider

	// Bound template library and its watcher
	library *types.TemplateLibrary
	watcher *watcher.Watcher

	// Last title set on the window, kept so it can be inspected outside Wails
	title string

	mu sync.RWMutex

	// isWailsRuntime indicates if the app is running in a Wails environment
	// This is used to safely skip runtime calls during tests
	isWailsRuntime bool
}

// safeEmit safely emits an event to the frontend.
// It only emits events when running in a Wails environment.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime {
		logger.Debug("event emit skipped (not in Wails runtime)",
			logger.String("event", eventName))
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// SetWailsRuntime sets the Wails runtime flag.
// This should be called from main.go when the app is started in Wails mode.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// NewApp creates a new App using the default config location.
func NewApp() *App {
	return &App{
		previewer: render.NewPreviewer(),
		dialogs:   wailsDialogs{},
	}
}

// NewAppWithConfig creates a new App with a custom config path.
// Settings are stored next to the config file.
func NewAppWithConfig(configPath string) (*App, error) {
	app := NewApp()

	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	app.config = configMgr
	return app, nil
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		configMgr, err := config.NewConfigManager("")
		if err != nil {
			logger.Error("failed to create config manager", err)
			return
		}
		a.config = configMgr
	}

	if err := a.config.Load(); err != nil {
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}

	a.settings = settings.NewManager(filepath.Dir(a.config.GetConfigPath()))
	logger.Debug("settings initialized", logger.String("path", a.settings.GetFilePath()))

	// Restore the bound template library. A missing or broken file is not
	// fatal; the binding is kept so it reloads once the file is fixed.
	if path := a.config.GetBoundTemplatePath(); path != "" {
		if _, err := a.loadTemplateLibrary(path); err != nil {
			logger.Warn("failed to restore bound template library",
				logger.String("path", path), logger.Err(err))
		}
		a.startWatching(path)
	}

	logger.Info("application startup complete",
		logger.String("locale", a.locale().Code()))
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	logger.Info("application shutting down")
	a.stopWatching()
	logger.Info("application shutdown complete")
}

func (a *App) locale() *locale.Locale {
	if a.config == nil {
		return locale.Default()
	}
	return a.config.GetLocale()
}

// backupManager keeps save backups in <configDir>/backups. It is nil
// without a config.
func (a *App) backupManager() *fileio.BackupManager {
	if a.config == nil {
		return nil
	}
	return fileio.NewBackupManager(filepath.Join(filepath.Dir(a.config.GetConfigPath()), "backups"))
}

func (a *App) fileWriter() *fileio.Writer {
	if a.config == nil {
		return fileio.NewWriter(nil, 0)
	}
	enabled, keep := a.config.BackupPolicy()
	if !enabled {
		return fileio.NewWriter(nil, 0)
	}
	return fileio.NewWriter(a.backupManager(), keep)
}

func (a *App) rememberFile(path string, kind types.DocumentKind) {
	if a.config == nil {
		return
	}
	if err := a.config.AddRecentFile(path, kind); err != nil {
		logger.Warn("failed to record recent file", logger.String("path", path), logger.Err(err))
	}
}

func (a *App) defaultDirectory() string {
	if a.config == nil {
		return ""
	}
	return a.config.GetLastDirectory()
}

// ReadJSONFile reads a document as UTF-8 text. Files saved with a BOM,
// in UTF-16 or in GBK are decoded first.
func (a *App) ReadJSONFile(path string) (string, error) {
	loc := a.locale()
	if path == "" {
		return "", types.NewAppError(types.ErrInvalidInput, loc.Text(locale.KeyEmptyPath), nil)
	}

	content, err := fileio.ReadText(path)
	if err != nil {
		logger.Error("failed to read file", err, logger.String("path", path))
		return "", types.NewAppErrorWithDetails(types.ErrFileIO, loc.Text(locale.KeyReadFailed), err.Error(), err)
	}

	a.rememberFile(path, documentKind(content))
	logger.Info("file read", logger.String("path", path), logger.Int("bytes", len(content)))
	return content, nil
}

// documentKind classifies content for the recent file list. Unparseable
// content has no kind.
func documentKind(content string) types.DocumentKind {
	value, err := jsonvalue.Parse(content)
	if err != nil {
		return ""
	}
	return templates.DetectKind(value)
}

// WriteJSONFile writes content to path, backing up the previous version
// when backups are enabled.
func (a *App) WriteJSONFile(path string, content string) error {
	loc := a.locale()
	if path == "" {
		return types.NewAppError(types.ErrInvalidInput, loc.Text(locale.KeyEmptyPath), nil)
	}

	if err := a.fileWriter().WriteText(path, content); err != nil {
		logger.Error("failed to write file", err, logger.String("path", path))
		return types.NewAppErrorWithDetails(types.ErrFileIO, loc.Text(locale.KeyWriteFailed), err.Error(), err)
	}

	a.rememberFile(path, documentKind(content))
	logger.Info("file written", logger.String("path", path), logger.Int("bytes", len(content)))
	return nil
}

func (a *App) jsonFilters() []runtime.FileFilter {
	return []runtime.FileFilter{
		{DisplayName: a.locale().Text(locale.KeyJSONFilter) + " (*.json)", Pattern: "*.json"},
	}
}

// OpenFileDialog lets the user pick a JSON document.
// Returns the selected file path or empty string if cancelled.
func (a *App) OpenFileDialog() (string, error) {
	logger.Debug("opening file dialog")
	selection, err := a.dialogs.OpenFile(a.ctx, runtime.OpenDialogOptions{
		Title:            a.locale().Text(locale.KeyOpenJSONTitle),
		DefaultDirectory: a.defaultDirectory(),
		Filters:          a.jsonFilters(),
	})
	if err != nil {
		// A dialog that fails to open is treated like a cancel.
		logger.Error("file dialog error", err)
		return "", nil
	}
	logger.Debug("file selected", logger.String("path", selection))
	return selection, nil
}

// SaveFileDialog asks for a location to save a JSON document.
// Returns the selected file path or empty string if cancelled.
func (a *App) SaveFileDialog() (string, error) {
	logger.Debug("opening save dialog")
	selection, err := a.dialogs.SaveFile(a.ctx, runtime.SaveDialogOptions{
		Title:            a.locale().Text(locale.KeySaveJSONTitle),
		DefaultDirectory: a.defaultDirectory(),
		DefaultFilename:  DefaultJSONFileName,
		Filters:          a.jsonFilters(),
	})
	if err != nil {
		logger.Error("save dialog error", err)
		return "", nil
	}
	return selection, nil
}

// ListBackups returns the save backups of path, newest first.
func (a *App) ListBackups(path string) ([]string, error) {
	if path == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, a.locale().Text(locale.KeyEmptyPath), nil)
	}
	m := a.backupManager()
	if m == nil {
		return []string{}, nil
	}
	backups, err := m.ListBackups(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrFileIO, a.locale().Text(locale.KeyReadFailed), err)
	}
	if backups == nil {
		backups = []string{}
	}
	return backups, nil
}

// RestoreBackup copies one of the backups reported by ListBackups over path.
func (a *App) RestoreBackup(backupPath, path string) error {
	loc := a.locale()
	if path == "" || backupPath == "" {
		return types.NewAppError(types.ErrInvalidInput, loc.Text(locale.KeyEmptyPath), nil)
	}
	m := a.backupManager()
	if m == nil {
		return types.NewAppError(types.ErrConfig, "config not initialized", nil)
	}
	if err := m.Restore(backupPath, path); err != nil {
		logger.Error("failed to restore backup", err,
			logger.String("backupPath", backupPath), logger.String("path", path))
		return types.NewAppErrorWithDetails(types.ErrFileIO, loc.Text(locale.KeyWriteFailed), err.Error(), err)
	}
	return nil
}

// GetAppConfigDir returns the per-user configuration directory.
func (a *App) GetAppConfigDir() (string, error) {
	dir, err := config.AppConfigDir()
	if err != nil {
		return "", types.NewAppError(types.ErrConfig, a.locale().Text(locale.KeyConfigDir), err)
	}
	return dir, nil
}

// FileExists reports whether anything exists at path.
func (a *App) FileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// SetWindowTitle sets the title of the main window.
func (a *App) SetWindowTitle(title string) error {
	a.mu.Lock()
	a.title = title
	a.mu.Unlock()

	if a.isWailsRuntime {
		runtime.WindowSetTitle(a.ctx, title)
	}
	return nil
}

// SetThemePreference stores "system", "light" or "dark".
func (a *App) SetThemePreference(theme string) error {
	if a.settings == nil {
		return types.NewAppError(types.ErrConfig, "settings not initialized", nil)
	}
	if err := a.settings.SetTheme(theme); err != nil {
		return types.NewAppError(types.ErrInvalidInput, err.Error(), err)
	}
	logger.Info("theme changed", logger.String("theme", a.settings.GetTheme()))
	return nil
}

// GetLocale returns the interface language code, "zh" or "en".
func (a *App) GetLocale() string {
	return a.locale().Code()
}

// SetLocale stores the interface language and returns the code it resolved
// to. FORMULA_EDITOR_LOCALE still takes precedence when set.
func (a *App) SetLocale(code string) (string, error) {
	if a.config == nil {
		return "", types.NewAppError(types.ErrConfig, "config not initialized", nil)
	}
	if err := a.config.SetLocale(code); err != nil {
		return "", types.NewAppError(types.ErrConfig, "failed to save locale", err)
	}
	logger.Info("locale changed", logger.String("locale", a.GetLocale()))
	return a.GetLocale(), nil
}

// GetSettings returns a snapshot of the configuration for the frontend.
func (a *App) GetSettings() types.Config {
	if a.config == nil {
		return *config.DefaultConfig()
	}
	return a.config.GetConfig()
}

// GetThemePreference returns the stored theme, "system" when unset.
func (a *App) GetThemePreference() string {
	if a.settings == nil {
		return settings.ThemeSystem
	}
	return a.settings.GetTheme()
}

// exportFile asks for a destination and writes content there. It returns
// the written path, or "" when the dialog is cancelled.
func (a *App) exportFile(content, title, filterKey, pattern, defaultName, failedKey string) (string, error) {
	loc := a.locale()
	path, err := a.dialogs.SaveFile(a.ctx, runtime.SaveDialogOptions{
		Title:            loc.Text(title),
		DefaultDirectory: a.defaultDirectory(),
		DefaultFilename:  defaultName,
		Filters:          []runtime.FileFilter{{DisplayName: loc.Text(filterKey) + " (" + pattern + ")", Pattern: pattern}},
	})
	if err != nil {
		logger.Error("save dialog error", err)
		return "", nil
	}
	if path == "" {
		return "", nil
	}

	if err := fileio.NewWriter(nil, 0).WriteText(path, content); err != nil {
		logger.Error("export failed", err, logger.String("path", path))
		return "", types.NewAppErrorWithDetails(types.ErrFileIO, loc.Text(failedKey), err.Error(), err)
	}

	logger.Info("document exported", logger.String("path", path), logger.Int("bytes", len(content)))
	return path, nil
}

// ExportLatexFile saves an already rendered LaTeX document.
func (a *App) ExportLatexFile(content string) (string, error) {
	return a.exportFile(content, locale.KeyExportLatex, locale.KeyLatexFilter, "*.tex",
		DefaultLatexFileName, locale.KeyWriteLatex)
}

// ExportMarkdownFile saves an already rendered Markdown document.
func (a *App) ExportMarkdownFile(content string) (string, error) {
	return a.exportFile(content, locale.KeyExportMarkdown, locale.KeyMarkdownFilter, "*.md",
		DefaultMarkdownFileName, locale.KeyWriteMarkdown)
}

// FormatLatex renders formulas as a standalone LaTeX document.
func (a *App) FormatLatex(items []types.FormulaItem) string {
	return render.FormatLatex(items)
}

// FormatMarkdown renders formulas as Markdown with display math.
func (a *App) FormatMarkdown(items []types.FormulaItem) string {
	return render.FormatMarkdown(items, a.locale())
}

// PreviewMarkdown renders the Markdown export as HTML.
func (a *App) PreviewMarkdown(items []types.FormulaItem) (string, error) {
	html, err := a.previewer.PreviewHTML(items, a.locale())
	if err != nil {
		logger.Error("preview failed", err)
		return "", types.NewAppError(types.ErrInternal, "preview failed", err)
	}
	return html, nil
}

// NormalizeFormulas parses a formula collection document.
func (a *App) NormalizeFormulas(content string) ([]types.FormulaEntry, error) {
	entries, err := formula.Normalize(content, a.locale())
	if err != nil {
		logger.Warn("formula document rejected", logger.Err(err))
		return nil, err
	}
	return entries, nil
}

// NormalizeTemplates parses a template library document.
func (a *App) NormalizeTemplates(content string) (*types.TemplateLibrary, error) {
	library, err := templates.Normalize(content, a.locale())
	if err != nil {
		logger.Warn("template document rejected", logger.Err(err))
		return nil, err
	}
	return library, nil
}

// loadTemplateLibrary reads and normalizes the library at path and makes it
// the current one.
func (a *App) loadTemplateLibrary(path string) (*types.TemplateLibrary, error) {
	loc := a.locale()
	content, err := fileio.ReadText(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrFileIO, loc.Text(locale.KeyReadFailed), err.Error(), err)
	}
	library, err := templates.Normalize(content, loc)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.library = library
	a.mu.Unlock()

	logger.Info("template library loaded",
		logger.String("path", path),
		logger.Int("categories", len(library.Categories)))
	return library, nil
}

// BindTemplateLibrary loads the library at path, remembers it across
// restarts and, if enabled, reloads it whenever the file changes.
func (a *App) BindTemplateLibrary(path string) (*types.TemplateLibrary, error) {
	if path == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, a.locale().Text(locale.KeyEmptyPath), nil)
	}

	library, err := a.loadTemplateLibrary(path)
	if err != nil {
		return nil, err
	}

	if a.config != nil {
		if err := a.config.SetBoundTemplatePath(path); err != nil {
			logger.Warn("failed to persist bound template path", logger.Err(err))
		}
	}
	a.rememberFile(path, types.KindTemplates)
	a.startWatching(path)
	return library, nil
}

// UnbindTemplateLibrary forgets the bound library and stops watching it.
func (a *App) UnbindTemplateLibrary() error {
	a.stopWatching()

	a.mu.Lock()
	a.library = nil
	a.mu.Unlock()

	if a.config != nil {
		return a.config.SetBoundTemplatePath("")
	}
	return nil
}

// GetTemplateLibrary returns the bound library, or nil when none is bound.
func (a *App) GetTemplateLibrary() *types.TemplateLibrary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.library
}

func (a *App) startWatching(path string) {
	if a.config != nil && !a.config.WatchTemplates() {
		a.stopWatching()
		return
	}

	w, err := watcher.New(path, watcher.DefaultDebounce, a.onTemplatesChanged)
	if err != nil {
		logger.Warn("failed to create template watcher", logger.Err(err))
		a.stopWatching()
		return
	}
	if err := w.Start(); err != nil {
		logger.Warn("failed to watch template library", logger.String("path", path), logger.Err(err))
		a.stopWatching()
		return
	}
	logger.Debug("watching template library", logger.String("path", w.Path()))
	a.swapWatcher(w)
}

func (a *App) stopWatching() {
	a.swapWatcher(nil)
}

// swapWatcher installs w and stops the watcher it replaces.
func (a *App) swapWatcher(w *watcher.Watcher) {
	a.mu.Lock()
	previous := a.watcher
	a.watcher = w
	a.mu.Unlock()

	if previous != nil {
		if err := previous.Stop(); err != nil {
			logger.Warn("failed to stop template watcher", logger.Err(err))
		}
	}
}

// onTemplatesChanged reloads the bound library after the file changed.
func (a *App) onTemplatesChanged(path string) {
	library, err := a.loadTemplateLibrary(path)
	if err != nil {
		logger.Warn("template library reload failed", logger.String("path", path), logger.Err(err))
		a.safeEmit(EventTemplatesError, err.Error())
		return
	}
	a.safeEmit(EventTemplatesChanged, library)
}

// GetRecentFiles returns recently used documents, newest first.
func (a *App) GetRecentFiles() []types.RecentFileItem {
	if a.config == nil {
		return []types.RecentFileItem{}
	}
	return a.config.GetRecentFiles()
}

// ClearRecentFiles empties the recent file history.
func (a *App) ClearRecentFiles() error {
	if a.config == nil {
		return nil
	}
	return a.config.ClearRecentFiles()
}

// GetSystemInfo describes the host as "OS: <os>, Arch: <arch>".
func (a *App) GetSystemInfo() string {
	return types.SystemInfo{OS: goruntime.GOOS, Arch: goruntime.GOARCH}.String()
}
