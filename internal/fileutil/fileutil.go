// Package fileutil holds file naming and writing helpers shared by the
// export paths.
package fileutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Export kinds distinguish the two output flavors in the filename.
const (
	ExportBasic        = "basic"
	ExportProfessional = "professional"
)

// ExportPath derives the output file name from the input file's stem, the
// export kind and a run timestamp:
// {stem}_avocado_{kind}_{unixts}.csv under outputDir.
func ExportPath(outputDir, inputPath, kind string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name := fmt.Sprintf("%s_avocado_%s_%d.csv", stem, kind, now.Unix())
	return filepath.Join(outputDir, name)
}

// FileExists checks if a file exists at the given path.
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteJSONFile writes data as indented JSON, respecting the overwrite
// flag. Returns true if the file was written, false if it was skipped.
func WriteJSONFile(data any, filePath string, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		slog.Info("JSON file already exists, skipping", "filename", filePath)
		return false, nil
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return false, fmt.Errorf("failed to write JSON file: %w", err)
	}
	return true, nil
}
