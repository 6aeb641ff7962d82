package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"formula-editor/internal/config"
	"formula-editor/internal/logger"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

// Command line flags
var (
	configFlag    = flag.String("config", "", "Path to the configuration file (default: user config directory)")
	templatesFlag = flag.String("templates", "", "Template library file to bind at startup")
	logLevelFlag  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("MathLive Formula Editor - 公式编辑器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  formula-editor [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  --config <PATH>     配置文件路径 (默认: 用户配置目录)")
	fmt.Println("  --templates <PATH>  启动时绑定的模板库文件")
	fmt.Println("  --log-level <LVL>   日志级别: debug, info, warn, error")
	fmt.Println("  -h, --help          显示帮助信息")
	fmt.Println()
	fmt.Println("无界面的转换与导出请使用 formulactl。")
}

// logPath places the log file next to the configuration.
func logPath(configPath string) string {
	if configPath != "" {
		return filepath.Join(filepath.Dir(configPath), "formula-editor.log")
	}
	dir, err := config.AppConfigDir()
	if err != nil {
		return "formula-editor.log"
	}
	return filepath.Join(dir, "formula-editor.log")
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.LogFilePath = logPath(*configFlag)
	logCfg.Level = logger.ParseLevel(*logLevelFlag)
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "警告: 无法初始化日志: %v\n", err)
	}
	defer logger.Close()

	app, err := NewAppWithConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	// Mark as running in Wails environment
	app.SetWailsRuntime(true)

	startupFunc := func(ctx context.Context) {
		app.startup(ctx)

		if *templatesFlag != "" {
			if _, err := app.BindTemplateLibrary(*templatesFlag); err != nil {
				logger.Error("failed to bind template library from command line", err,
					logger.String("path", *templatesFlag))
			}
		}
	}

	err = wails.Run(&options.App{
		Title:  "MathLive Formula Editor",
		Width:  1200,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        startupFunc,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("wails run failed", err)
	}
}
