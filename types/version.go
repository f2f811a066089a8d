package types

// Version is the canonical project version.
// The controller and the peer program share this version; the peer reports
// it in its startup status line so mismatched installs show up in traces.
const Version = "0.3.0"

// ProtocolVersion is the version of the peer line protocol.
const ProtocolVersion = "1"
