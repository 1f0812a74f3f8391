package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxEnvSearchDepth bounds how many parent directories are searched for .env.
const maxEnvSearchDepth = 6

// LoadDotEnv copies KEY=VALUE pairs from the nearest .env file into the
// process environment. Variables that are already set win.
func LoadDotEnv(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir, err := os.Getwd()
	if err != nil {
		logger.Warn("failed to locate .env", zap.Error(err))
		return
	}
	path := findEnvFile(dir)
	if path == "" {
		logger.Debug(".env not found in current or parent directories")
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warn("failed to open env file", zap.String("path", path), zap.Error(err))
		return
	}
	defer file.Close()

	if err := applyEnvFile(file, logger); err != nil {
		logger.Warn("failed to load env file", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("loaded env file", zap.String("path", path))
}

func findEnvFile(dir string) string {
	for i := 0; i < maxEnvSearchDepth; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func applyEnvFile(r io.Reader, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, trimQuotes(strings.TrimSpace(value))); err != nil {
			logger.Warn("failed to set variable from env file", zap.String("key", key))
		}
	}
	return scanner.Err()
}

func trimQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
