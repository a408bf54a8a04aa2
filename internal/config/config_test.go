package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetOverwriteFiles(t *testing.T) {
	// Save the original value to restore after the test
	originalValue := OverwriteFiles

	testCases := []struct {
		name     string
		input    bool
		expected bool
	}{
		{
			name:     "set to true",
			input:    true,
			expected: true,
		},
		{
			name:     "set to false",
			input:    false,
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Set the value
			SetOverwriteFiles(tc.input)

			// Check that the global variable was updated
			assert.Equal(t, tc.expected, OverwriteFiles)
		})
	}

	// Restore the original value
	OverwriteFiles = originalValue
}

func TestHasCredentials(t *testing.T) {
	origKey, origSecret := WSKey, WSSecret
	t.Cleanup(func() { WSKey, WSSecret = origKey, origSecret })

	WSKey, WSSecret = "", ""
	assert.False(t, HasCredentials())

	WSKey = "key"
	assert.False(t, HasCredentials())

	WSSecret = "secret"
	assert.True(t, HasCredentials())
}

func TestInitConfigReadsViperValues(t *testing.T) {
	origKey, origSecret, origDir := WSKey, WSSecret, OutputDir
	t.Cleanup(func() {
		WSKey, WSSecret, OutputDir = origKey, origSecret, origDir
		viper.Reset()
	})

	viper.Reset()
	viper.Set("wskey", "abc")
	viper.Set("wssecret", "def")
	viper.Set("outputdir", "/tmp/exports")

	InitConfig()

	assert.Equal(t, "abc", WSKey)
	assert.Equal(t, "def", WSSecret)
	assert.Equal(t, "/tmp/exports", OutputDir)
}

func TestDefaultOutputDir(t *testing.T) {
	dir := DefaultOutputDir()
	assert.NotEmpty(t, dir)
	if dir != "." {
		assert.Equal(t, "Downloads", filepath.Base(dir))
	}
}
