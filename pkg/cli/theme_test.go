package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
)

func TestLoadThemeDefaultsToColor(t *testing.T) {
	files, err := credentials.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	defer files.Close()

	assert.Equal(t, themeColor, loadTheme(files))
}

func TestLoadThemeReadsPersistedPreference(t *testing.T) {
	files, err := credentials.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	defer files.Close()

	require.NoError(t, files.SetJSON(credentials.KeyTheme, themePlain))
	assert.Equal(t, themePlain, loadTheme(files))

	// Unknown persisted values fall back rather than disabling color.
	require.NoError(t, files.SetJSON(credentials.KeyTheme, "neon"))
	assert.Equal(t, themeColor, loadTheme(files))
}
