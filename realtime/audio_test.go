package realtime

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatTo16BitPCM(t *testing.T) {
	pcm := FloatTo16BitPCM([]float32{0, 1, -1, 0.5})

	require.Len(t, pcm, 8)
	assert.Equal(t, []byte{0x00, 0x00}, pcm[0:2])
	assert.Equal(t, []byte{0xff, 0x7f}, pcm[2:4]) // 32767
	assert.Equal(t, []byte{0x01, 0x80}, pcm[4:6]) // -32767
	assert.Equal(t, []byte{0xff, 0x3f}, pcm[6:8]) // 16383
}

func TestFloatTo16BitPCM_Clips(t *testing.T) {
	pcm := FloatTo16BitPCM([]float32{2.5, -3})

	assert.Equal(t, []byte{0xff, 0x7f}, pcm[0:2])
	assert.Equal(t, []byte{0x01, 0x80}, pcm[2:4])
}

func TestEncodeAudio(t *testing.T) {
	encoded := EncodeAudio([]float32{0, 1})

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, FloatTo16BitPCM([]float32{0, 1}), decoded)
}
