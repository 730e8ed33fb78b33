package version

// VERSION is overridden at build time with -ldflags "-X ...version.VERSION=...".
var VERSION = "dev"

// AppVersion returns the identifier sent to the service as User-Agent.
func AppVersion() string {
	return "sdr-client/" + VERSION
}
