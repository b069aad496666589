package diary

// Version is the release of the diary binaries and the MCP server.
const Version = "0.1.0"
