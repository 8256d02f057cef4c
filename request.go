package rincon

// request describes one call against the registry.
type request struct {
	// method is the HTTP method.
	method string
	// path is relative to the configured base URL.
	path string
	// body is an optional value that will be JSON-encoded.
	body any
	// query are optional URL query parameters.
	query map[string]string
	// auth marks the call as requiring the configured credentials. Read
	// calls never send credentials.
	auth bool
}
