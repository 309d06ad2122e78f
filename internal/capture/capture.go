// Package capture holds the user-supplied inputs for a generation: one image
// and one prompt.
package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotAnImage rejects files whose declared MIME type is not image/*.
var ErrNotAnImage = errors.New("capture: selected file is not an image")

// SourceImage is a selected image together with its inline base64 form.
type SourceImage struct {
	Filename string
	MIME     string
	Data     []byte
	// Encoded is the standard base64 body, without any data-URI header.
	Encoded string
}

// Inputs collects the image and prompt feeding a generation.
type Inputs struct {
	image  *SourceImage
	prompt string
}

// SelectImage validates and stores a newly selected file. A non-image MIME
// type is rejected and the previously selected image, if any, is kept.
func (in *Inputs) SelectImage(filename, mimeType string, data []byte) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: %s", ErrNotAnImage, mimeType)
	}
	in.image = &SourceImage{
		Filename: filename,
		MIME:     mimeType,
		Data:     data,
		Encoded:  base64.StdEncoding.EncodeToString(data),
	}
	return nil
}

// SetPrompt stores the trimmed prompt text.
func (in *Inputs) SetPrompt(prompt string) {
	in.prompt = strings.TrimSpace(prompt)
}

// Prompt returns the current prompt text.
func (in *Inputs) Prompt() string {
	return in.prompt
}

// Image returns the currently selected image, or nil.
func (in *Inputs) Image() *SourceImage {
	return in.image
}

// Complete reports whether both a prompt and an encoded image are present.
func (in *Inputs) Complete() bool {
	return in.prompt != "" && in.image != nil && in.image.Encoded != ""
}

// Clear drops both inputs.
func (in *Inputs) Clear() {
	in.image = nil
	in.prompt = ""
}

// StripDataURIHeader returns the base64 body of a data URI, dropping the
// "data:<mime>;base64," header segment. Strings without a header are
// returned unchanged.
func StripDataURIHeader(uri string) string {
	if !strings.HasPrefix(uri, "data:") {
		return uri
	}
	if i := strings.IndexByte(uri, ','); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// LoadImageFile reads an image from disk for the CLI path, resolving the MIME
// type from the extension and falling back to content sniffing.
func LoadImageFile(path string) (string, string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("capture: read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return filepath.Base(path), mimeType, data, nil
}
