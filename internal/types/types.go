// Package types defines core data types and error codes for the formula editor backend.
package types

import "errors"

// Config 应用配置
type Config struct {
	Locale            string           `json:"locale"`              // 界面语言：zh 或 en
	LastDirectory     string           `json:"last_directory"`      // 上次打开/保存文件所在目录
	RecentFiles       []RecentFileItem `json:"recent_files"`        // 最近打开的公式集/模板库
	BoundTemplatePath string           `json:"bound_template_path"` // 已绑定的模板库文件
	WatchTemplates    bool             `json:"watch_templates"`     // 绑定的模板库变化时自动重新载入
	BackupOnSave      bool             `json:"backup_on_save"`      // 覆盖 JSON 文件前先备份
	MaxBackups        int              `json:"max_backups"`         // 每个文件保留的备份数量
}

// RecentFileItem 最近文件记录
type RecentFileItem struct {
	Path      string       `json:"path"`
	Timestamp int64        `json:"timestamp"` // Unix 毫秒
	Kind      DocumentKind `json:"kind"`
}

// DocumentKind 文件种类
type DocumentKind string

const (
	KindFormulas  DocumentKind = "formulas"
	KindTemplates DocumentKind = "templates"
)

// FormulaEntry is one normalized formula of a collection.
type FormulaEntry struct {
	ID    string  `json:"id"`
	Index uint32  `json:"index"` // display order, not necessarily contiguous
	Latex string  `json:"latex"`
	Note  *string `json:"note"`
}

// Item returns the renderer view of the entry.
func (e FormulaEntry) Item() FormulaItem {
	return FormulaItem{Latex: e.Latex, Note: e.Note}
}

// FormulaItem is the renderer input: a LaTeX body with an optional annotation.
type FormulaItem struct {
	Latex string  `json:"latex"`
	Note  *string `json:"note,omitempty"`
}

// ItemsFromEntries converts normalized entries to renderer items, preserving order.
func ItemsFromEntries(entries []FormulaEntry) []FormulaItem {
	items := make([]FormulaItem, len(entries))
	for i, e := range entries {
		items[i] = e.Item()
	}
	return items
}

// TemplateItem 模板
type TemplateItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Latex string  `json:"latex"`
	Note  *string `json:"note"`
}

// TemplateCategory 模板分类。ParentID 只是对另一个分类 ID 的引用，可能悬空。
type TemplateCategory struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Templates []TemplateItem `json:"templates"`
	ParentID  *string        `json:"parentId"`
}

// TemplateLibrary 模板库，分类按先序展开
type TemplateLibrary struct {
	Categories         []TemplateCategory `json:"categories"`
	SelectedCategoryID string             `json:"selectedCategoryId"`
}

// SystemInfo 运行环境信息
type SystemInfo struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// String returns the "OS: x, Arch: y" form shown in the about dialog.
func (s SystemInfo) String() string {
	return "OS: " + s.OS + ", Arch: " + s.Arch
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrInvalidJSON  ErrorCode = "INVALID_JSON"
	ErrWrongKind    ErrorCode = "WRONG_KIND"
	ErrWrongShape   ErrorCode = "WRONG_SHAPE"
	ErrFileIO       ErrorCode = "FILE_IO_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
