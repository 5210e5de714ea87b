package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCreatesContainers(t *testing.T) {
	dir := t.TempDir()

	rec, err := NewRecorder(dir)
	require.NoError(t, err)

	assert.FileExists(t, rec.VideoPath)
	assert.FileExists(t, rec.AudioPath)

	require.NoError(t, rec.Close())
	// Closing twice is harmless.
	require.NoError(t, rec.Close())
}
