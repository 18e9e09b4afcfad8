// Package storage persists raw HTML snapshots and analysis reports, either
// on the local filesystem or in S3-compatible object storage.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store is implemented by the filesystem and S3 backends.
type Store interface {
	// SaveSnapshot stores the raw fetched HTML for an analysis and returns
	// the path (or object key) it was written to.
	SaveSnapshot(html, slug string) (string, error)

	// SaveReport stores the serialized analysis report JSON.
	SaveReport(report []byte, slug string) (string, error)

	// ReadSnapshot returns a previously stored HTML snapshot.
	ReadSnapshot(path string) (string, error)

	// ReadReport returns a previously stored report.
	ReadReport(path string) ([]byte, error)

	// Delete removes a stored object. Missing objects are not an error.
	Delete(path string) error
}

// Config contains filesystem storage configuration
type Config struct {
	BasePath string // Base directory for all stored files
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// Storage handles filesystem storage operations
type Storage struct {
	config Config
}

// New creates a new Storage instance
func New(config Config) (*Storage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &Storage{
		config: config,
	}, nil
}

// SaveSnapshot saves raw fetched HTML to the filesystem.
// Returns the relative file path from the base storage directory.
func (s *Storage) SaveSnapshot(html, slug string) (string, error) {
	return s.save([]byte(html), "snapshots", slug, ".html")
}

// SaveReport saves a serialized analysis report to the filesystem.
// Returns the relative file path from the base storage directory.
func (s *Storage) SaveReport(report []byte, slug string) (string, error) {
	return s.save(report, "reports", slug, ".json")
}

// save writes data under kind/YYYY/MM/slug.ext, making the filename unique
// if a previous snapshot for the same slug exists.
func (s *Storage) save(data []byte, kind, slug, ext string) (string, error) {
	now := time.Now()
	year := fmt.Sprintf("%04d", now.Year())
	month := fmt.Sprintf("%02d", int(now.Month()))

	dirPath := filepath.Join(s.config.BasePath, kind, year, month)

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	filename := slug + ext
	filePath := filepath.Join(dirPath, filename)

	// Check if file already exists and make unique if necessary
	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d%s", slug, counter, ext)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", kind, err)
	}

	// Return relative path from base storage directory
	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}

	return relPath, nil
}

// ReadSnapshot reads a stored HTML snapshot from the filesystem
func (s *Storage) ReadSnapshot(relPath string) (string, error) {
	data, err := s.read(relPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadReport reads a stored report from the filesystem
func (s *Storage) ReadReport(relPath string) ([]byte, error) {
	return s.read(relPath)
}

func (s *Storage) read(relPath string) ([]byte, error) {
	fullPath := filepath.Join(s.config.BasePath, relPath)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	return data, nil
}

// Delete removes a stored file from the filesystem
func (s *Storage) Delete(relPath string) error {
	fullPath := filepath.Join(s.config.BasePath, relPath)

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}

	return nil
}

// GetFullPath returns the full filesystem path for a relative path
func (s *Storage) GetFullPath(relPath string) string {
	return filepath.Join(s.config.BasePath, relPath)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
