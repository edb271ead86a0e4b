package buildinfo

import "fmt"

// Set at build time, for example:
//
//	-X 'github.com/m3rciful/hungrylogs/core/buildinfo.Version=v0.4.0'
//	-X 'github.com/m3rciful/hungrylogs/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/hungrylogs/core/buildinfo.Date=2026-01-30T12:00:00Z'
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// Summary renders the build identity as a single line for logs and /help.
func Summary() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
