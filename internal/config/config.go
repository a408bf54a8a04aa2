package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing output files should be overwritten
	OverwriteFiles bool
	// WSKey is the OCLC WorldCat API key
	WSKey string
	// WSSecret is the OCLC WorldCat API secret
	WSSecret string
	// OutputDir is where export files are written
	OutputDir string
)

// InitConfig initializes the global configuration. Credentials come from
// the environment (a .env file is honored, matching the OCLC_WSKEY /
// OCLC_WSSECRET convention) or from the config file.
func InitConfig() {
	// .env in the working directory, if present
	_ = godotenv.Load()

	viper.SetDefault("outputdir", DefaultOutputDir())

	WSKey = viper.GetString("wskey")
	WSSecret = viper.GetString("wssecret")
	OutputDir = viper.GetString("outputdir")
	OverwriteFiles = viper.GetBool("overwritefiles")
}

// DefaultOutputDir is the user's Downloads directory, falling back to the
// working directory when the home directory cannot be determined.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// HasCredentials reports whether both API credentials are configured.
func HasCredentials() bool {
	return WSKey != "" && WSSecret != ""
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}
