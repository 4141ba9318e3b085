package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, "jpeg", NormalizeExtension("jpg"))
	assert.Equal(t, "jpeg", NormalizeExtension("JPG"))
	assert.Equal(t, "jpeg", NormalizeExtension("jpeg"))
	assert.Equal(t, "png", NormalizeExtension("PNG"))
	assert.Equal(t, "webp", NormalizeExtension(" webp "))
}

func TestNewImageSlug(t *testing.T) {
	slug := NewImageSlug()
	assert.Len(t, slug, 8)
	assert.NotEqual(t, slug, NewImageSlug())
}

func TestImageFilenameAndRawURL(t *testing.T) {
	img := &Image{Slug: "ab12cd34", Extension: "jpeg"}
	assert.Equal(t, "ab12cd34.jpeg", img.Filename())
	assert.Equal(t, "https://pulsar.pub/images/raw/ab12cd34.jpeg", img.RawURL("https:", "pulsar.pub"))
}

func TestImageDataSizeMB(t *testing.T) {
	img := &Image{Data: make([]byte, 1024*1024)}
	assert.Equal(t, 1.0, img.DataSizeMB())
}
