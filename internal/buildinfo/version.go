package buildinfo

// Version is overridden at release time via
// -ldflags "-X github.com/dondejvo/lancelot-cli/internal/buildinfo.Version=v1.2.3".
var Version = "dev"
