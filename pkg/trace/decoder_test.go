package trace

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCosmics/sapphire/pkg/storage"
)

func compress(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zlib.NewWriter(&buf)
	_, err := writer.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	store := storage.NewMemStore()
	idx := store.AddBlob(compress(t, "12,34,56,"))

	samples, err := Decode(store, idx)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 34, 56}, samples)
}

func TestDecodeWithoutTrailingField(t *testing.T) {
	store := storage.NewMemStore()
	idx := store.AddBlob(compress(t, "1,2,3"))

	samples, err := Decode(store, idx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, samples)
}

func TestDecodeNegativeValues(t *testing.T) {
	store := storage.NewMemStore()
	idx := store.AddBlob(compress(t, "-5,0,17,"))

	samples, err := Decode(store, idx)
	require.NoError(t, err)
	assert.Equal(t, []int{-5, 0, 17}, samples)
}

func TestDecodeCorruptBlob(t *testing.T) {
	store := storage.NewMemStore()
	idx := store.AddBlob([]byte("not a zlib stream"))

	_, err := Decode(store, idx)
	var decodeErr *ErrDecode
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, idx, decodeErr.Index)
}

func TestDecodeBadInteger(t *testing.T) {
	store := storage.NewMemStore()
	idx := store.AddBlob(compress(t, "12,xy,56,"))

	_, err := Decode(store, idx)
	var decodeErr *ErrDecode
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecodeNegativeIndex(t *testing.T) {
	store := storage.NewMemStore()

	_, err := Decode(store, -1)
	var decodeErr *ErrDecode
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecodeMissingBlob(t *testing.T) {
	store := storage.NewMemStore()

	_, err := Decode(store, 7)
	var decodeErr *ErrDecode
	require.ErrorAs(t, err, &decodeErr)
	var noBlob *storage.ErrNoBlob
	require.ErrorAs(t, err, &noBlob)
}
