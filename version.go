package rigno

// Version is the library version, consumed by the CLI and the HTTP API.
var Version = "0.1.0"
