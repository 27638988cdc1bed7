package schema

// Version is the release reported by the CLI and the HTTP API. Overridden at
// build time with -ldflags "-X .../schema.Version=...".
var Version = "0.3.0"
