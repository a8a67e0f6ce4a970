package config

// Set through -ldflags at release time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func SetBuildFlags(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
}
