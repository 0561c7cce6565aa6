// Package version holds the build metadata reported by the CLI and the ingest server.
package version

// Version and BuildDate are overridden at link time with -ldflags "-X".
var Version = "0.1"
var BuildDate = "2024-07-08"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String renders the one-line banner printed by `datagen version`.
func String() string {
	return "datagen " + Version + " (built " + BuildDate + ")"
}
