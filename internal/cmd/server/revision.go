package server

import (
	"log/slog"
	"runtime/debug"
)

// Build identifies the binary serving requests.
type Build struct {
	Revision  string
	Modified  bool
	GoVersion string
}

var build = readBuild(debug.ReadBuildInfo)

func readBuild(read func() (*debug.BuildInfo, bool)) Build {
	b := Build{Revision: "unknown"}

	info, ok := read()
	if !ok {
		return b
	}
	b.GoVersion = info.GoVersion

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func (b Build) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("revision", b.Revision),
		slog.Bool("modified", b.Modified),
		slog.String("go", b.GoVersion),
	)
}
