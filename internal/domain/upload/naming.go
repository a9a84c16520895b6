package upload

import (
	"path"
	"strings"
)

const (
	ThumbnailPrefix = "thumb_"
	PublicPrefix    = "/uploads"
)

// ThumbnailName derives the thumbnail file name from the original's.
// Every path and URL for a thumbnail goes through here.
func ThumbnailName(filename string) string {
	return ThumbnailPrefix + filename
}

func ImageURL(filename string) string {
	return path.Join(PublicPrefix, imagesDirName, filename)
}

func ThumbnailURL(filename string) string {
	return path.Join(PublicPrefix, thumbnailsDirName, ThumbnailName(filename))
}

// FilenameFromURL returns the stored filename behind an original's public URL.
func FilenameFromURL(url string) (string, error) {
	prefix := path.Join(PublicPrefix, imagesDirName) + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", ErrInvalidFilename
	}
	name := strings.TrimPrefix(url, prefix)
	if err := checkFilename(name); err != nil {
		return "", err
	}
	return name, nil
}

func checkFilename(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidFilename
	}
	return nil
}
