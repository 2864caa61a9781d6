package static

// Set at build time with -ldflags "-X github.com/cadsweep/cadsweep/pkg/static.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)
