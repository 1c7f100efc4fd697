package storage_test

import (
	"testing"

	"story-playback/internal/storage"

	"github.com/stretchr/testify/assert"
)

func TestAllowedContentType(t *testing.T) {
	assert.True(t, storage.AllowedContentType("image/jpeg"))
	assert.True(t, storage.AllowedContentType("video/mp4"))
	assert.False(t, storage.AllowedContentType("application/pdf"))
	assert.False(t, storage.AllowedContentType(""))
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"beach.JPG", "stories/u1/abc.jpg"},
		{"../../etc/passwd", "stories/u1/abc"},
		{`C:\clips\reel.mp4`, "stories/u1/abc.mp4"},
		{"noext", "stories/u1/abc"},
		{"weird.extensionthatistoolong", "stories/u1/abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, storage.ObjectKey("u1", "abc", tt.fileName), tt.fileName)
	}
}
