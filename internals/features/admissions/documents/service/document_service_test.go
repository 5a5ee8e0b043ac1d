package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	dto "schoolerp_backend/internals/features/admissions/documents/dto"
)

func TestNormalizeKind(t *testing.T) {
	tests := map[string]string{
		"Photo":              "photo",
		" birth-certificate": "birth_certificate",
		"marksheets[]":       "marksheets",
		"Caste-Cert[]":       "caste_cert",
	}
	for in, want := range tests {
		got := NormalizeKind(in)
		assert.Equal(t, want, got, in)
		assert.Regexp(t, kindRe, got)
	}
	assert.NotRegexp(t, kindRe, NormalizeKind("photo.front"))
	assert.NotRegexp(t, kindRe, NormalizeKind(""))
}

func TestMerge(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	existing := []dto.Document{
		{Kind: "photo", URL: "https://cdn/old-photo.webp", UploadedAt: t0},
		{Kind: "marksheet", URL: "https://cdn/marksheet.pdf", UploadedAt: t0},
	}
	newPhoto := dto.Document{Kind: "photo", URL: "https://cdn/new-photo.webp", UploadedAt: t0.Add(time.Hour)}
	caste := dto.Document{Kind: "caste_certificate", URL: "https://cdn/caste.pdf", UploadedAt: t0.Add(time.Hour)}

	got := Merge(existing, newPhoto, caste)
	require.Len(t, got, 3)
	assert.Equal(t, newPhoto, got[0], "same kind is replaced in place")
	assert.Equal(t, "marksheet", got[1].Kind)
	assert.Equal(t, caste, got[2])

	assert.Equal(t, []dto.Document{caste}, Merge(nil, caste))
}

func TestDecode(t *testing.T) {
	docs, err := decode(datatypes.JSON(`[]`))
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = decode(nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = decode(datatypes.JSON(`[{"kind":"photo","url":"u","content_type":"image/webp","size":12}]`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "photo", docs[0].Kind)
	assert.Equal(t, 12, docs[0].Size)

	_, err = decode(datatypes.JSON(`{"photo":"u"}`))
	assert.Error(t, err)
}
