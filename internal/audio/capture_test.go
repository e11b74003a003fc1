package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureBuffersUntilStop(t *testing.T) {
	capture := &Capture{device: Device{ID: "mic-1"}}
	require.Equal(t, "mic-1", capture.Device().ID)

	n, err := capture.onPCM([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	_, err = capture.onPCM([]byte{4, 5})
	require.NoError(t, err)
	require.Equal(t, int64(5), capture.BytesCaptured())

	require.Equal(t, []byte{1, 2, 3, 4, 5}, capture.Stop())
	require.Nil(t, capture.Stop())

	n, err = capture.onPCM([]byte{6})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, int64(5), capture.BytesCaptured())
}

func TestCaptureIgnoresEmptyBuffers(t *testing.T) {
	capture := &Capture{}
	n, err := capture.onPCM(nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, capture.Stop())
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	var got []byte
	writer := writerFunc(func(b []byte) (int, error) {
		got = append(got, b...)
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, got)
}
