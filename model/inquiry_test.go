package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentList_ValueAndScan(t *testing.T) {
	list := AttachmentList{
		{Name: "shot.png", Path: "u1/abc-shot.png", Size: 1024, ContentType: "image/png"},
	}

	v, err := list.Value()
	require.NoError(t, err)

	var scanned AttachmentList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, list, scanned)
}

func TestAttachmentList_EmptyAndNil(t *testing.T) {
	v, err := AttachmentList{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var scanned AttachmentList
	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan(""))
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan([]byte(`[{"name":"a","path":"p","size":1,"contentType":"text/plain"}]`)))
	require.Len(t, scanned, 1)
	assert.Equal(t, "a", scanned[0].Name)
}
