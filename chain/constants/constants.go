package constants

const (
	// Version of the accountlib service binary.
	Version = "v0.1.0"

	// ServiceName is the JSON-RPC service namespace.
	ServiceName = "accountlib"

	// Endpoint is the path the JSON-RPC service is served on.
	Endpoint = "/rpc"
)
