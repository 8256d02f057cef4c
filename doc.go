// Package rincon is a client for the Rincon service registry: services
// register their name, version, endpoint, and health-check URL, advertise
// the HTTP routes they serve, and resolve which service currently owns a
// given (path, method) pair.
//
// The Client wraps the registry's HTTP contract with typed operations,
// translates protocol outcomes into a small error taxonomy, and can keep a
// registration alive with a background heartbeat.
//
// # Basic Usage
//
//	client, err := rincon.New(rincon.Config{
//	    BaseURL:  "http://localhost:10311",
//	    Username: "admin",
//	    Password: "admin",
//	})
//	if err != nil {
//	    // handle
//	}
//	defer client.Close()
//
//	svc, err := client.Register(ctx, rincon.Service{
//	    Name:        "users",
//	    Version:     "1.0.0",
//	    Endpoint:    "http://localhost:8080",
//	    HealthCheck: "http://localhost:8080/health",
//	}, rincon.Route{Route: "/users", Method: "GET,POST"})
//
//	client.StartHeartbeat(10 * time.Second)
//
// # Error Handling
//
// Every failure is a *rincon.Error carrying an ErrorCode, a human-readable
// message, and the originating HTTP status when there is one. Branch on the
// code via the Is* predicates:
//
//	if _, err := client.GetServiceByID(ctx, 42); rincon.IsNotFound(err) {
//	    // not registered
//	}
//
// Note that the Rincon server reports route conflicts as HTTP 500; the
// client maps 500 to IsConflict rather than treating it as a generic server
// error.
package rincon
