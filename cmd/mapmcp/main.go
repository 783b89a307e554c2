package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/NERVsystems/mapmcp/pkg/config"
	"github.com/NERVsystems/mapmcp/pkg/dataset"
	"github.com/NERVsystems/mapmcp/pkg/logging"
	"github.com/NERVsystems/mapmcp/pkg/server"
	"github.com/NERVsystems/mapmcp/pkg/version"
)

// serverKey names this server in the mcpServers section of a client config.
const serverKey = "mapmcp"

var (
	showVersion    bool
	debug          bool
	configPath     string
	generateConfig string
	exportData     string
)

func init() {
	flag.BoolVar(&showVersion, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&configPath, "config", "", "Path to a config file (default: mapmcp.yaml in . or ./configs)")
	flag.StringVar(&generateConfig, "generate-config", "", "Generate a Claude Desktop Client config file at the specified path")
	flag.StringVar(&exportData, "export-data", "", "Write the bundled datasets to the specified directory and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	logger := logging.Setup("info", "text", os.Stderr)

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully generated Claude Desktop Client config", "path", generateConfig)
		return
	}

	if exportData != "" {
		if err := dataset.ExportEmbedded(exportData); err != nil {
			logger.Error("failed to export datasets", "error", err)
			os.Exit(1)
		}
		logger.Info("exported bundled datasets", "dir", exportData)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	logger = logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	logger.Info("starting map MCP server",
		"version", version.BuildVersion,
		"transport", cfg.Server.Transport,
		"log_level", cfg.Log.Level)

	store, err := dataset.Load(cfg.Data.Dir)
	if err != nil {
		logger.Error("failed to load datasets", "dir", cfg.Data.Dir, "error", err)
		os.Exit(1)
	}
	logger.Info("datasets loaded", "counts", store.Counts())

	srv, err := server.NewServer(cfg, store, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server initialized, waiting for requests")
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// generateClientConfig creates or updates a Claude Desktop Client config
// file, keeping every other entry already in it.
func generateClientConfig(outputPath string) error {
	logger := slog.Default()

	if outputPath == "" {
		return fmt.Errorf("config path is empty")
	}
	if filepath.Ext(outputPath) != ".json" {
		return fmt.Errorf("config path %s must end in .json", outputPath)
	}
	for _, part := range strings.Split(filepath.ToSlash(outputPath), "/") {
		if part == ".." {
			return fmt.Errorf("config path %s must not contain ..", outputPath)
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	serverConfig := map[string]any{
		"command": absExecPath,
		"args":    []string{},
	}

	clientConfig := make(map[string]any)
	if data, err := os.ReadFile(outputPath); err == nil {
		if err := json.Unmarshal(data, &clientConfig); err != nil {
			logger.Warn("existing config is not valid JSON, will create new", "error", err)
			clientConfig = make(map[string]any)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing config: %w", err)
	}

	mcpServers, ok := clientConfig["mcpServers"].(map[string]any)
	if !ok {
		mcpServers = make(map[string]any)
		clientConfig["mcpServers"] = mcpServers
	}
	mcpServers[serverKey] = serverConfig

	data, err := json.MarshalIndent(clientConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(outputPath, 0o600)
}
