// Package upload checks the images admins attach to site content.
package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxImageBytes bounds admin icon and logo uploads.
const MaxImageBytes = 2 << 20

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

var (
	ErrUnsupportedExtension = errors.New("Only JPG, JPEG, PNG, GIF and WEBP images are supported")
	ErrScriptableContent    = errors.New("HTML, SVG and XML content is not allowed")
	ErrUnsupportedType      = errors.New("The file type is not supported")
	ErrTooLarge             = errors.New("The image must not be larger than 2 MB")
)

// imageTypes maps accepted extensions to the content type their bytes must
// sniff as. SVG is never accepted since it can carry script.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func scriptable(contentType string) bool {
	for _, prefix := range []string{"text/html", "application/xhtml", "text/xml", "application/xml", "image/svg"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// ValidateImageBySniff checks filename's extension and the leading bytes
// of the file and returns the sniffed content type. An image may carry any
// accepted extension, so a PNG named .jpg passes.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	if _, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]; !ok {
		return "", ErrUnsupportedExtension
	}

	sniffed := http.DetectContentType(head)
	if scriptable(sniffed) {
		return "", ErrScriptableContent
	}
	for _, accepted := range imageTypes {
		if sniffed == accepted {
			return sniffed, nil
		}
	}
	return "", ErrUnsupportedType
}

// OpenImage validates a multipart upload and returns it opened at offset 0.
// The caller closes the file.
func OpenImage(fh *multipart.FileHeader) (multipart.File, error) {
	if fh.Size > MaxImageBytes {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	if err := checkOpened(f, fh.Filename); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func checkOpened(f multipart.File, filename string) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if _, err := ValidateImageBySniff(filename, head[:n]); err != nil {
		return err
	}
	_, err = f.Seek(0, io.SeekStart)
	return err
}
