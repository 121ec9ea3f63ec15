package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// DetectContentType determines the MIME type for a key.
//
// Detection priority:
// 1. If providedType is non-empty, use it directly
// 2. Detect from the key's extension using mime.TypeByExtension
// 3. Fall back to "application/octet-stream"
func DetectContentType(providedType, key string) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(key))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}

// ExtensionForContentType returns a common file extension for a MIME type.
// Used when generating storage keys from uploaded content types.
func ExtensionForContentType(contentType string) string {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))

	extensions := map[string]string{
		"image/jpeg":      ".jpg",
		"image/jpg":       ".jpg",
		"image/png":       ".png",
		"application/pdf": ".pdf",
	}

	if ext, ok := extensions[baseType]; ok {
		return ext
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ".bin"
}
