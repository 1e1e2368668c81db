package enum

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
)

// ExtractedContent represents a log read out of an archive.
type ExtractedContent struct {
	Name    string // path within the archive (e.g., "memcheck/stdio.log")
	Content []byte // decompressed log text
}

// ExtractLogs reads every text member of a .zip, .7z or .gz file. Members
// larger than maxSize (when non-zero) and binary members are skipped.
func ExtractLogs(path string, content []byte, maxSize int64) ([]ExtractedContent, error) {
	switch getExtension(path) {
	case ".zip":
		return extractZip(content, maxSize)
	case ".7z":
		return extractSevenZip(content, maxSize)
	case ".gz":
		return extractGzip(path, content, maxSize)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// extractZip reads logs from a zip archive.
func extractZip(content []byte, maxSize int64) ([]ExtractedContent, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	var results []ExtractedContent
	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if maxSize > 0 && int64(file.UncompressedSize64) > maxSize {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		data, err := readLimited(rc, maxSize)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if isBinary(data) {
			continue
		}
		results = append(results, ExtractedContent{Name: file.Name, Content: data})
	}
	return results, nil
}

// extractSevenZip reads logs from a 7z archive.
func extractSevenZip(content []byte, maxSize int64) ([]ExtractedContent, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z: %w", err)
	}

	var results []ExtractedContent
	for _, file := range r.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if maxSize > 0 && file.FileInfo().Size() > maxSize {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		data, err := readLimited(rc, maxSize)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if isBinary(data) {
			continue
		}
		results = append(results, ExtractedContent{Name: file.Name, Content: data})
	}
	return results, nil
}

// extractGzip decompresses a single gzipped log.
func extractGzip(path string, content []byte, maxSize int64) ([]ExtractedContent, error) {
	zr, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer zr.Close()

	data, err := readLimited(zr, maxSize)
	if err != nil {
		return nil, err
	}
	if isBinary(data) {
		return nil, nil
	}

	name := zr.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return []ExtractedContent{{Name: name, Content: data}}, nil
}

// readLimited reads r to EOF, failing once more than maxSize bytes arrive.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", maxSize)
	}
	return data, nil
}

// getExtension returns the lower-cased extension of path.
func getExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// isArchive reports whether path has an extension ExtractLogs understands.
func isArchive(path string) bool {
	switch getExtension(path) {
	case ".zip", ".7z", ".gz":
		return true
	}
	return false
}
