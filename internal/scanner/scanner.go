// Package scanner finds statement files for the batch parse command.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Scanner walks a directory tree and finds statement files.
type Scanner struct {
	rootDir string
}

// New creates a new scanner for the given root directory.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Result is a found statement file with metadata inferred from its path.
// Path structure: {root}/{bank}/{period?}/file.ext
type Result struct {
	Path    string
	Bank    string
	Period  string
	FoundAt time.Time
}

// Scan walks the directory tree and finds all statement files.
func (s *Scanner) Scan() ([]Result, error) {
	var results []Result

	rootDir := s.expandHome(s.rootDir)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !s.isStatementFile(path) {
			return nil
		}

		bank, period := s.extractMetadata(path, rootDir)
		results = append(results, Result{
			Path:    path,
			Bank:    bank,
			Period:  period,
			FoundAt: time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// isStatementFile checks if the file is a known statement format.
func (s *Scanner) isStatementFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || ext == ".ofx" || ext == ".qfx" || ext == ".txt"
}

// extractMetadata infers the bank and period from the directory structure.
func (s *Scanner) extractMetadata(filePath, rootDir string) (bank, period string) {
	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		relPath = filePath
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")

	if len(parts) >= 2 {
		bank = s.normalizeBankName(parts[0])
	}
	if len(parts) >= 3 && s.looksLikePeriod(parts[1]) {
		period = parts[1]
	}
	return bank, period
}

// normalizeBankName converts a directory name to a readable name.
// "banamex" -> "Banamex", "nu_mexico" -> "Nu Mexico"
func (s *Scanner) normalizeBankName(dirName string) string {
	name := strings.ReplaceAll(dirName, "_", " ")

	words := strings.Split(name, " ")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// looksLikePeriod checks if the string looks like a date period (YYYY-MM).
func (s *Scanner) looksLikePeriod(str string) bool {
	return len(str) >= 7 && str[4] == '-'
}

// expandHome expands ~ to the home directory.
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
