package version

// Version information set via ldflags at build time
var (
	Version   = "dev"     // -X 'github.com/kleverson/cartas/internal/version.Version=...'
	GitCommit = "unknown" // -X 'github.com/kleverson/cartas/internal/version.GitCommit=...'
	BuildDate = "unknown" // -X 'github.com/kleverson/cartas/internal/version.BuildDate=...'
)
