// Command formula-mcp serves the formula editor tools over MCP on stdio.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"formula-editor/internal/locale"
	"formula-editor/internal/logger"
	fmcp "formula-editor/internal/mcp"
)

func main() {
	localeFlag := flag.String("locale", "", "default language of synthesized names (zh|en)")
	logFile := flag.String("log-file", "", "write logs to this file (stdout is reserved for the protocol)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	// stdout carries the protocol; logs go to a file or stderr.
	logCfg := &logger.Config{Level: logger.ParseLevel(*logLevel), LogFilePath: *logFile}
	if *logFile == "" {
		logCfg.Output = os.Stderr
	} else {
		logCfg.MaxFileSize = logger.DefaultConfig().MaxFileSize
		logCfg.MaxBackups = logger.DefaultConfig().MaxBackups
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	code := *localeFlag
	if code == "" {
		code = strings.TrimSpace(os.Getenv("FORMULA_EDITOR_LOCALE"))
	}
	loc := locale.Parse(code)

	logger.Info("MCP server starting", logger.String("locale", loc.Code()))
	if err := server.ServeStdio(fmcp.NewServer(loc)); err != nil {
		logger.Error("MCP server stopped", err)
		os.Exit(1)
	}
}
