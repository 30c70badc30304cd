// Package buildinfo exposes version metadata set at link time, falling back
// to what the Go toolchain embeds in the binary.
package buildinfo

import "runtime/debug"

// Set with -ldflags "-X routeshadow/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	info := map[string]string{
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info["go"] = bi.GoVersion
	info["module"] = bi.Main.Path
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info["commit"] == "" {
				info["commit"] = s.Value
			}
		case "vcs.time":
			if info["builtAt"] == "" {
				info["builtAt"] = s.Value
			}
		}
	}
	return info
}
