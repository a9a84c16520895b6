package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLs(t *testing.T) {
	assert.Equal(t, "thumb_x.png", ThumbnailName("x.png"))
	assert.Equal(t, "/uploads/images/x.png", ImageURL("x.png"))
	assert.Equal(t, "/uploads/thumbnails/thumb_x.png", ThumbnailURL("x.png"))
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "image url", url: "/uploads/images/abc.jpg", want: "abc.jpg"},
		{name: "thumbnail url", url: "/uploads/thumbnails/thumb_abc.jpg", wantErr: true},
		{name: "external", url: "https://cdn.example/abc.jpg", wantErr: true},
		{name: "traversal", url: "/uploads/images/../secret", wantErr: true},
		{name: "nested", url: "/uploads/images/a/b.jpg", wantErr: true},
		{name: "empty name", url: "/uploads/images/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilenameFromURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilename)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.url, ImageURL(got))
		})
	}
}
