package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	// SVG is intentionally excluded: scriptable content served from user sites
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImageBySniff checks the filename extension and the first bytes of
// the payload against the image whitelist. Returns the detected mime type or
// an error with a user-facing message.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("Only JPG, JPEG, PNG, GIF and WEBP images are supported.")
	}

	detected := http.DetectContentType(head)

	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("Invalid file type: HTML content is not allowed.")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", errors.New("SVG/XML files are not supported.")
	}

	// some encoders produce payloads Go sniffs as octet-stream; trust the
	// whitelisted extension in that case
	if detected == "application/octet-stream" && allowedExt[ext] {
		return detected, nil
	}

	if allowedMime[detected] {
		return detected, nil
	}

	return "", errors.New("The file type is not supported.")
}
