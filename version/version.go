package version

// Version is the semantic version of the registro binary.
const Version = "0.3.0"
