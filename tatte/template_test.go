package tatte_test

import (
	"testing"

	"tatte-go/tatte"

	"github.com/stretchr/testify/require"
)

func TestResizeAllocatesExactSize(t *testing.T) {
	for _, size := range []uint64{1, 7, 64, 4096} {
		var tmpl tatte.Template
		buf, err := tmpl.Resize(size)
		require.NoError(t, err)
		require.Len(t, buf, int(size))
		require.Equal(t, size, tmpl.Size())
	}
}

func TestResizeZeroIsBlankAndIdempotent(t *testing.T) {
	var tmpl tatte.Template
	_, err := tmpl.Resize(32)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		buf, err := tmpl.Resize(0)
		require.NoError(t, err)
		require.Nil(t, buf)
		require.Zero(t, tmpl.Size())
		require.Nil(t, tmpl.Bytes())
	}
}

func TestResizeTooLarge(t *testing.T) {
	var tmpl tatte.Template
	_, err := tmpl.Resize(tatte.MaxTemplateSize + 1)
	require.ErrorIs(t, err, tatte.ErrTemplateTooLarge)
	require.Zero(t, tmpl.Size())
}

func TestBytesRoundTripAndCopySemantics(t *testing.T) {
	var tmpl tatte.Template
	buf, err := tmpl.Resize(5)
	require.NoError(t, err)
	copy(buf, []byte{1, 2, 3, 4, 5})

	got := tmpl.Bytes()
	require.Equal(t, []byte{1, 2, 3, 4, 5}, got)

	got[0] = 99
	require.Equal(t, []byte{1, 2, 3, 4, 5}, tmpl.Bytes())
}

func TestNewTemplateCopiesInput(t *testing.T) {
	src := []byte("payload")
	tmpl, err := tatte.NewTemplate(src)
	require.NoError(t, err)
	src[0] = 'X'
	require.Equal(t, []byte("payload"), tmpl.Bytes())

	blank, err := tatte.NewTemplate(nil)
	require.NoError(t, err)
	require.Zero(t, blank.Size())
}

func TestBoundingBoxesPreserveOrder(t *testing.T) {
	var tmpl tatte.Template
	const n = 4
	for i := 0; i < n; i++ {
		tmpl.AddBoundingBox(tatte.BoundingBox{X: uint16(i), Width: 1, Height: 1})
	}
	boxes := tmpl.BoundingBoxes()
	require.Len(t, boxes, n)
	for i, bb := range boxes {
		require.Equal(t, uint16(i), bb.X)
	}

	boxes[0].X = 42
	require.Equal(t, uint16(0), tmpl.BoundingBoxes()[0].X)
}

func TestParseGalleryType(t *testing.T) {
	g, err := tatte.ParseGalleryType("unconsolidated")
	require.NoError(t, err)
	require.Equal(t, tatte.Unconsolidated, g)

	g, err = tatte.ParseGalleryType("")
	require.NoError(t, err)
	require.Equal(t, tatte.Consolidated, g)

	_, err = tatte.ParseGalleryType("merged")
	require.Error(t, err)
}
