package upload

import (
	"mime"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"
)

type imageKind struct {
	format imaging.Format
	ext    string
}

// kinds lists the media types a thumbnail can be encoded for, with the
// extension used when the client filename does not name the same format.
var kinds = map[string]imageKind{
	"image/jpeg": {format: imaging.JPEG, ext: ".jpg"},
	"image/png":  {format: imaging.PNG, ext: ".png"},
	"image/gif":  {format: imaging.GIF, ext: ".gif"},
	"image/bmp":  {format: imaging.BMP, ext: ".bmp"},
	"image/tiff": {format: imaging.TIFF, ext: ".tiff"},
}

// EncodableTypes returns the media types the pipeline can store and thumbnail.
func EncodableTypes() []string {
	types := lo.Keys(kinds)
	sort.Strings(types)
	return types
}

// mediaType strips parameters and normalises case.
func mediaType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return mt
}

// extensionFor keeps the client's extension when imaging reads it as the
// declared format, and otherwise uses the canonical one.
func extensionFor(kind imageKind, clientExt string) string {
	if f, err := imaging.FormatFromExtension(clientExt); err == nil && f == kind.format {
		return clientExt
	}
	return kind.ext
}
