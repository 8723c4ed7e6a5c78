package handlers

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/pkg/validation"
)

func TestReadJSONFields(t *testing.T) {
	fields, err := readJSONFields(strings.NewReader(`{"name":"Ada","github":null,"email":"ignored@example.com"}`))
	require.NoError(t, err)
	assert.Len(t, fields, 2)
	assert.Equal(t, "Ada", *fields["name"])
	v, ok := fields["github"]
	assert.True(t, ok)
	assert.Nil(t, v)

	fields, err = readJSONFields(strings.NewReader(``))
	require.NoError(t, err)
	assert.Empty(t, fields)

	_, err = readJSONFields(strings.NewReader(`{"name": 42}`))
	assert.Error(t, err)
}

func TestBuildPatch(t *testing.T) {
	validation.Init()
	blank, name := "   ", " Ada "
	p, err := buildPatch(map[string]*string{"name": &name, "linkedin": &blank})
	require.NoError(t, err)

	assert.True(t, p.Name.Set)
	assert.Equal(t, "Ada", *p.Name.Value)
	assert.True(t, p.LinkedIn.Set)
	assert.Nil(t, p.LinkedIn.Value, "blank clears the field")
	assert.False(t, p.GitHub.Set)
	assert.False(t, p.PhoneNumber.Set)

	bad := "0812"
	_, err = buildPatch(map[string]*string{"phone_number": &bad})
	require.Error(t, err)
	assert.Equal(t, "must be a valid phone number", validation.ToDetails(err)["phone_number"])
}

func uploadHeader(t *testing.T, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="files"; filename="avatar"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["files"], 1)
	return form.File["files"][0]
}

func TestReadUpload_DeclaredTypeIsKept(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

	up, err := readUpload(uploadHeader(t, "application/octet-stream", gif))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", up.ContentType)

	up, err = readUpload(uploadHeader(t, "image/gif", gif))
	require.NoError(t, err)
	assert.Equal(t, "image/gif", up.ContentType)
	assert.Equal(t, gif, up.Data)

	up, err = readUpload(uploadHeader(t, "", gif))
	require.NoError(t, err)
	assert.Equal(t, "image/gif", up.ContentType, "sniffed when nothing is declared")
}
