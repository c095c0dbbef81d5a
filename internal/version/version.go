package version

// Version is the service release version.
const Version = "1.0.0"
