package helper

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepare(t *testing.T) {
	opt := WebPOptions{MaxW: 400, MaxH: 300}

	t.Run("empty", func(t *testing.T) {
		_, err := Prepare(nil, "a.png", opt)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
	t.Run("too large", func(t *testing.T) {
		_, err := Prepare(make([]byte, MaxUploadSize+1), "a.png", opt)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := Prepare([]byte("just some text"), "notes.txt", opt)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
	t.Run("pdf passes through", func(t *testing.T) {
		pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF")
		p, err := Prepare(pdf, "marksheet.pdf", opt)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", p.ContentType)
		assert.Equal(t, ".pdf", p.Ext)
		assert.Equal(t, pdf, p.Data)
	})
	t.Run("png becomes fitted webp", func(t *testing.T) {
		p, err := Prepare(pngBytes(t, 800, 400), "photo.png", opt)
		require.NoError(t, err)
		assert.Equal(t, "image/webp", p.ContentType)
		assert.Equal(t, ".webp", p.Ext)

		cfg, err := webp.DecodeConfig(bytes.NewReader(p.Data))
		require.NoError(t, err)
		assert.Equal(t, 400, cfg.Width)
		assert.Equal(t, 200, cfg.Height)
	})
	t.Run("small image keeps its size", func(t *testing.T) {
		p, err := Prepare(pngBytes(t, 120, 80), "photo.png", opt)
		require.NoError(t, err)
		cfg, err := webp.DecodeConfig(bytes.NewReader(p.Data))
		require.NoError(t, err)
		assert.Equal(t, 120, cfg.Width)
		assert.Equal(t, 80, cfg.Height)
	})
	t.Run("corrupt png", func(t *testing.T) {
		data := pngBytes(t, 10, 10)
		_, err := Prepare(data[:40], "photo.png", opt)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnsupportedType)
	})
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"My Photo.v2":       "my-photo-v2",
		"birth_certificate": "birth-certificate",
		"  ---  ":           "file",
		"Aadhaar (front)":   "aadhaar-front",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("/admissions/abc/", "Birth Certificate.pdf", ".pdf")
	assert.Regexp(t, `^admissions/abc/birth-certificate_\d{8}_\d{6}_[0-9a-f]{6}\.pdf$`, key)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(Options{Dir: dir, BaseURL: "http://localhost:3000/", Prefix: "/docs/"})
	require.NoError(t, err)
	local, ok := s.(*LocalStore)
	require.True(t, ok, "no OSS credentials means disk storage")

	ctx := context.Background()
	url, err := local.Put(ctx, "admissions/1/photo.webp", []byte("x"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/uploads/docs/admissions/1/photo.webp", url)

	got, err := os.ReadFile(filepath.Join(dir, "docs", "admissions", "1", "photo.webp"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))

	require.NoError(t, local.Delete(ctx, "admissions/1/photo.webp"))
	require.NoError(t, local.Delete(ctx, "admissions/1/photo.webp"), "deleting twice is fine")

	_, err = NewLocalStore(" ", "", "")
	assert.Error(t, err)
}

func TestOSSPublicURL(t *testing.T) {
	cdn := &OSSStore{PublicBase: "https://cdn.example.org/", BucketName: "docs", Endpoint: "oss-ap-southeast-5.aliyuncs.com"}
	assert.Equal(t, "https://cdn.example.org/a/b.webp", cdn.PublicURL("a/b.webp"))

	direct := &OSSStore{BucketName: "docs", Endpoint: "https://oss-ap-southeast-5.aliyuncs.com"}
	assert.Equal(t, "https://docs.oss-ap-southeast-5.aliyuncs.com/a/b.webp", direct.PublicURL("a/b.webp"))
	assert.Empty(t, direct.PublicURL(""))
}
