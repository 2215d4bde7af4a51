package esocial

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// MaxZipSizeMB caps uploaded archives before any decompression happens.
const MaxZipSizeMB = 500

const maxZipSizeBytes = MaxZipSizeMB * 1024 * 1024

// ExtractedFile is one XML entry pulled out of an archive. Path keeps the
// full in-archive location so same-named files in different subfolders stay
// distinguishable.
type ExtractedFile struct {
	Name    string
	Path    string
	Content string
}

// ZipResult reports an archive extraction.
type ZipResult struct {
	XMLFiles   []ExtractedFile
	TotalFiles int
	Elapsed    time.Duration
}

// ProgressFunc is invoked after each entry is decoded with
// (entries done, entries total).
type ProgressFunc func(done, total int)

// IsZipFile reports whether the file name carries a .zip extension.
func IsZipFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}

// IsXMLFile reports whether the file name carries a .xml extension.
func IsXMLFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xml")
}

// ExtractZip unpacks every .xml entry of the archive, at any folder depth.
// The size ceiling is enforced on the raw archive before decompression.
func ExtractZip(data []byte, onProgress ProgressFunc) (*ZipResult, error) {
	start := time.Now()

	if len(data) > maxZipSizeBytes {
		sizeMB := float64(len(data)) / (1024 * 1024)
		return nil, fmt.Errorf("arquivo ZIP muito grande (%.2fMB). Limite máximo: %dMB", sizeMB, MaxZipSizeMB)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("arquivo ZIP corrompido ou inválido: %w", err)
	}

	var xmlEntries []*zip.File
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || !IsXMLFile(entry.Name) {
			continue
		}
		xmlEntries = append(xmlEntries, entry)
	}

	if len(xmlEntries) == 0 {
		return nil, fmt.Errorf("nenhum arquivo XML encontrado no ZIP")
	}

	result := &ZipResult{TotalFiles: len(reader.File)}
	for i, entry := range xmlEntries {
		content, err := readZipEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("extrair %s: %w", entry.Name, err)
		}
		result.XMLFiles = append(result.XMLFiles, ExtractedFile{
			Name:    path.Base(entry.Name),
			Path:    entry.Name,
			Content: content,
		})
		if onProgress != nil {
			onProgress(i+1, len(xmlEntries))
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

func readZipEntry(entry *zip.File) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return DecodeXMLText(raw), nil
}

// DecodeXMLText converts raw XML bytes to a UTF-8 string. eSocial archives in
// the wild carry both UTF-8 and ISO-8859-1 files; the prolog declaration wins,
// and bytes that are not valid UTF-8 fall back to Latin-1.
func DecodeXMLText(raw []byte) string {
	prolog := raw
	if len(prolog) > 256 {
		prolog = prolog[:256]
	}
	declared := strings.ToLower(string(prolog))

	latin1 := strings.Contains(declared, "iso-8859-1") || strings.Contains(declared, "windows-1252")
	if !latin1 && utf8.Valid(raw) {
		return string(raw)
	}

	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
