package types

// Version is the canonical project version.
// The CLI, the wire envelope and the archive records share this version.
const Version = "0.3.0"

// WireVersion is the companion bridge wire version.
// Envelopes carry no version field; this is reported in diagnostics and archive
// records so that mixed phone/watch builds can be told apart.
const WireVersion = "1"
