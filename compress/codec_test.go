package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/doccol/format"
)

func TestNewCodec_KnownTypes(t *testing.T) {
	for _, typ := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		codec, err := NewCodec(typ)
		require.NoError(t, err, typ.String())
		require.NotNil(t, codec)
	}

	_, err := NewCodec(format.CompressionType(0x7F))
	require.Error(t, err)
}

func TestCodecs_RoundTrip(t *testing.T) {
	// Repetitive input so every codec actually shrinks it.
	input := bytes.Repeat([]byte("column-payload-0123456789"), 64)

	for _, typ := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		t.Run(typ.String(), func(t *testing.T) {
			codec, err := NewCodec(typ)
			require.NoError(t, err)

			compressed, err := codec.Compress(input)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, input, decompressed)

			if typ != format.CompressionNone {
				require.Less(t, len(compressed), len(input))
			}
		})
	}
}

func TestNoOpCompressor_SharesInput(t *testing.T) {
	codec := NewNoOpCompressor()
	input := []byte{1, 2, 3}

	out, err := codec.Compress(input)
	require.NoError(t, err)
	require.Equal(t, input, out)
	require.Same(t, &input[0], &out[0], "the returned slice aliases the input")
}
