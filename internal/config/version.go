package config

// Version is the toggled binary version.
// Set at build time via: -ldflags "-X github.com/adminkit/toggle/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
