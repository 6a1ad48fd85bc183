package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

// parseFlags overlays command-line flags onto config. Unknown flags are
// filtered out first so the CLI tolerates flags meant for other layers.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	serverURL := fs.String("s", config.ServerURL, "server base URL")

	fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-s"}))

	config.ServerURL = *serverURL
}
