package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowed = []string{"image/jpeg", "image/png", "image/gif"}

func TestStore_SaveAcceptsAllowList(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		wantExt     string
	}{
		{contentType: "image/jpeg", filename: "holiday.JPG", wantExt: ".JPG"},
		{contentType: "image/png", filename: "shot.png", wantExt: ".png"},
		{contentType: "image/gif", filename: "loop.gif", wantExt: ".gif"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			layout := newTestLayout(t)
			store := NewStore(layout, allowed, 1<<20)
			body := []byte("raw bytes")

			asset, err := store.Save(context.Background(), Incoming{
				Reader:      bytes.NewReader(body),
				Filename:    tt.filename,
				ContentType: tt.contentType + "; charset=binary",
				Size:        int64(len(body)),
			})
			require.NoError(t, err)

			assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\`+tt.wantExt+`$`), asset.Filename)
			assert.Equal(t, layout.ImagePath(asset.Filename), asset.Path)
			got, err := os.ReadFile(asset.Path)
			require.NoError(t, err)
			assert.Equal(t, body, got)
			assert.Equal(t, []string{asset.Filename}, dirEntries(t, layout.ImagesDir))
		})
	}
}

func TestStore_SaveNormalisesExtension(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		wantExt     string
	}{
		{filename: "photo.jfif", contentType: "image/jpeg", wantExt: ".jpg"},
		{filename: "photo.jpe", contentType: "image/jpeg", wantExt: ".jpg"},
		{filename: "scan.txt", contentType: "image/jpeg", wantExt: ".jpg"},
		{filename: "photo.jpeg", contentType: "image/jpeg", wantExt: ".jpeg"},
		{filename: "actually-png.jpg", contentType: "image/png", wantExt: ".png"},
		{filename: "anim.png", contentType: "image/gif", wantExt: ".gif"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			store := NewStore(newTestLayout(t), allowed, 1<<20)

			asset, err := store.Save(context.Background(), Incoming{
				Reader: strings.NewReader("x"), Filename: tt.filename, ContentType: tt.contentType, Size: 1,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, filepath.Ext(asset.Filename))
		})
	}
}

func TestStore_SaveRejectsTypeWithoutEncoder(t *testing.T) {
	layout := newTestLayout(t)
	store := NewStore(layout, []string{"image/jpeg", "image/webp"}, 1<<20)

	_, err := store.Save(context.Background(), Incoming{
		Reader: strings.NewReader("RIFF"), Filename: "a.webp", ContentType: "image/webp", Size: 4,
	})

	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Empty(t, dirEntries(t, layout.ImagesDir))
}

func TestEncodableTypes(t *testing.T) {
	assert.Equal(t, []string{"image/bmp", "image/gif", "image/jpeg", "image/png", "image/tiff"}, EncodableTypes())
}

func TestStore_SaveRejectsWithoutWriting(t *testing.T) {
	tests := []struct {
		name    string
		in      Incoming
		wantErr error
	}{
		{
			name:    "type outside allow-list",
			in:      Incoming{Reader: strings.NewReader("%PDF"), Filename: "a.pdf", ContentType: "application/pdf", Size: 4},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "missing type",
			in:      Incoming{Reader: strings.NewReader("x"), Filename: "a.jpg", Size: 1},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "declared size over limit",
			in:      Incoming{Reader: strings.NewReader("x"), Filename: "a.jpg", ContentType: "image/jpeg", Size: 11},
			wantErr: ErrPayloadTooLarge,
		},
		{
			name:    "stream over limit",
			in:      Incoming{Reader: strings.NewReader(strings.Repeat("x", 64)), Filename: "a.jpg", ContentType: "image/jpeg", Size: 5},
			wantErr: ErrPayloadTooLarge,
		},
		{
			name:    "empty",
			in:      Incoming{Reader: strings.NewReader(""), Filename: "a.jpg", ContentType: "image/jpeg", Size: 0},
			wantErr: ErrEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := newTestLayout(t)
			store := NewStore(layout, allowed, 10)

			_, err := store.Save(context.Background(), tt.in)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, dirEntries(t, layout.ImagesDir))
			assert.Empty(t, dirEntries(t, layout.ThumbnailsDir))
		})
	}
}

func TestStore_SaveDerivesMissingExtension(t *testing.T) {
	layout := newTestLayout(t)
	store := NewStore(layout, allowed, 1<<20)

	asset, err := store.Save(context.Background(), Incoming{
		Reader:      strings.NewReader("png"),
		Filename:    "screenshot",
		ContentType: "image/png",
		Size:        3,
	})
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(asset.Filename))
}

func TestStore_SaveUniqueNames(t *testing.T) {
	store := NewStore(newTestLayout(t), allowed, 1<<20)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		asset, err := store.Save(context.Background(), Incoming{
			Reader: strings.NewReader("x"), Filename: "same.gif", ContentType: "image/gif", Size: 1,
		})
		require.NoError(t, err)
		assert.False(t, seen[asset.Filename])
		seen[asset.Filename] = true
	}
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	layout := newTestLayout(t)
	store := NewStore(layout, allowed, 1<<20)
	thumbs := NewThumbnailer(layout, 50)

	data := encodeImage(t, 120, 80, imaging.PNG)
	asset, err := store.Save(context.Background(), Incoming{
		Reader: bytes.NewReader(data), Filename: "a.png", ContentType: "image/png", Size: int64(len(data)),
	})
	require.NoError(t, err)
	_, err = thumbs.Generate(context.Background(), asset.Path)
	require.NoError(t, err)

	require.NoError(t, store.Remove(asset.Filename))
	assert.Empty(t, dirEntries(t, layout.ImagesDir))
	assert.Empty(t, dirEntries(t, layout.ThumbnailsDir))

	assert.NoError(t, store.Remove(asset.Filename), "second removal must not fail")
}

func TestStore_RemoveRejectsTraversal(t *testing.T) {
	store := NewStore(newTestLayout(t), allowed, 1<<20)

	for _, name := range []string{"", "../x.jpg", "a/b.jpg", ".."} {
		assert.ErrorIs(t, store.Remove(name), ErrInvalidFilename, name)
	}
}
