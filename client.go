package rincon

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rinconhq/rincon-go/logger"
)

// Client is a session against a Rincon service registry. It wraps the
// registry HTTP contract with typed operations, tracks at most one locally
// owned registration (the current service and its routes), and owns an
// optional background heartbeat that keeps that registration alive.
//
// A Client is safe for concurrent use. The tracked registration is a thin
// local cache: registering a second service while one is active replaces
// the cached state without deregistering the previous service.
type Client struct {
	transport *transport
	cfg       Config
	log       *logger.Logger

	mu      sync.Mutex
	service *Service
	routes  []Route
	hb      *heartbeat
}

// New creates a client for the registry at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logging).WithComponent("rincon")

	return &Client{
		transport: newTransport(cfg),
		cfg:       cfg,
		log:       log,
	}, nil
}

// Close stops any running heartbeat and releases transport resources. The
// current registration, if any, is left on the server; call Deregister first
// to remove it.
func (c *Client) Close() error {
	c.StopHeartbeat()
	c.transport.close()
	return nil
}

// Ping fetches a fresh status snapshot from the registry.
func (c *Client) Ping(ctx context.Context) (*Ping, error) {
	body, err := c.transport.do(ctx, request{method: http.MethodGet, path: "/rincon/ping"})
	if err != nil {
		return nil, err
	}
	var ping Ping
	if err := decodeJSON(body, &ping); err != nil {
		return nil, err
	}
	return &ping, nil
}

// ListServices returns all services known to the registry.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	body, err := c.transport.do(ctx, request{method: http.MethodGet, path: "/rincon/services"})
	if err != nil {
		return nil, err
	}
	return decodeServices(body)
}

// GetServicesByName returns the services registered under a name. The server
// may answer with a single object or an array; both normalize to a slice.
func (c *Client) GetServicesByName(ctx context.Context, name string) ([]Service, error) {
	body, err := c.transport.do(ctx, request{
		method: http.MethodGet,
		path:   "/rincon/services/" + name,
	})
	if err != nil {
		return nil, err
	}
	return decodeServices(body)
}

// GetServiceByID looks up a single service by its numeric id.
func (c *Client) GetServiceByID(ctx context.Context, id int) (*Service, error) {
	body, err := c.transport.do(ctx, request{
		method: http.MethodGet,
		path:   "/rincon/services/" + strconv.Itoa(id),
	})
	if err != nil {
		return nil, err
	}
	var svc Service
	if err := decodeJSON(body, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// RegisterService submits a service registration. The id and timestamp
// fields are stripped from the payload; the server assigns them and returns
// the canonical record. Registration is keyed by endpoint on the server, so
// re-registering the same endpoint updates in place and the returned id is
// not necessarily fresh.
func (c *Client) RegisterService(ctx context.Context, svc Service) (*Service, error) {
	body, err := c.transport.do(ctx, request{
		method: http.MethodPost,
		path:   "/rincon/services",
		body:   newServiceRegistration(svc),
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	var registered Service
	if err := decodeJSON(body, &registered); err != nil {
		return nil, err
	}
	return &registered, nil
}

// RemoveService removes a service by id.
func (c *Client) RemoveService(ctx context.Context, id int) error {
	_, err := c.transport.do(ctx, request{
		method: http.MethodDelete,
		path:   "/rincon/services/" + strconv.Itoa(id),
		auth:   true,
	})
	return err
}

// ListRoutes returns all routes known to the registry.
func (c *Client) ListRoutes(ctx context.Context) ([]Route, error) {
	body, err := c.transport.do(ctx, request{method: http.MethodGet, path: "/rincon/routes"})
	if err != nil {
		return nil, err
	}
	return decodeRoutes(body)
}

// GetRoutesForService returns the routes registered by the named service.
func (c *Client) GetRoutesForService(ctx context.Context, serviceName string) ([]Route, error) {
	body, err := c.transport.do(ctx, request{
		method: http.MethodGet,
		path:   "/rincon/services/" + serviceName + "/routes",
	})
	if err != nil {
		return nil, err
	}
	return decodeRoutes(body)
}

// GetRoutesByPath returns all routes registered at a path pattern.
func (c *Client) GetRoutesByPath(ctx context.Context, route string) ([]Route, error) {
	body, err := c.transport.do(ctx, request{
		method: http.MethodGet,
		path:   "/rincon/routes",
		query:  map[string]string{"route": route},
	})
	if err != nil {
		return nil, err
	}
	return decodeRoutes(body)
}

// RouteOption narrows a GetRoute lookup.
type RouteOption func(map[string]string)

// WithMethod filters the lookup to routes serving the given HTTP method.
func WithMethod(method string) RouteOption {
	return func(q map[string]string) { q["method"] = method }
}

// WithService filters the lookup to routes owned by the named service.
func WithService(serviceName string) RouteOption {
	return func(q map[string]string) { q["service"] = serviceName }
}

// GetRoute looks up a single route by path, optionally narrowed by method
// and owning service. An empty result list from the server is reported as a
// not-found error even though the response status is 200.
func (c *Client) GetRoute(ctx context.Context, route string, opts ...RouteOption) (*Route, error) {
	query := map[string]string{"route": route}
	for _, opt := range opts {
		opt(query)
	}

	body, err := c.transport.do(ctx, request{
		method: http.MethodGet,
		path:   "/rincon/routes",
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	routes, err := decodeRoutes(body)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, NewNotFoundError(fmt.Sprintf("No route %s found", route))
	}
	return &routes[0], nil
}

// RegisterRoute submits a route registration. The id and created_at fields
// are stripped from the payload. The server may merge the submitted methods
// into an existing route at the same path, so the returned method set is not
// necessarily the submitted one.
func (c *Client) RegisterRoute(ctx context.Context, route Route) (*Route, error) {
	body, err := c.transport.do(ctx, request{
		method: http.MethodPost,
		path:   "/rincon/routes",
		body:   newRouteRegistration(route),
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	var registered Route
	if err := decodeJSON(body, &registered); err != nil {
		return nil, err
	}
	return &registered, nil
}

// MatchRoute resolves which service currently owns a (path, method) pair.
// Exactly one leading slash is stripped from the path before querying.
func (c *Client) MatchRoute(ctx context.Context, route, method string) (*Service, error) {
	route = strings.TrimPrefix(route, "/")

	body, err := c.transport.do(ctx, request{
		method: http.MethodGet,
		path:   "/rincon/match",
		query:  map[string]string{"route": route, "method": method},
	})
	if err != nil {
		return nil, err
	}
	var svc Service
	if err := decodeJSON(body, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// Register registers a service and its routes, and tracks the result as the
// session's current registration. Each route's ServiceName is set to the
// registered service's name before submission, and routes are registered in
// the order given.
//
// On a route failure the error propagates immediately: routes already
// accepted by the server stay registered (no rollback) and the session's
// route list holds exactly the routes processed before the failure.
func (c *Client) Register(ctx context.Context, svc Service, routes ...Route) (*Service, error) {
	registered, err := c.RegisterService(ctx, svc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.service = registered
	c.routes = nil
	c.mu.Unlock()

	for _, route := range routes {
		route.ServiceName = registered.Name
		registeredRoute, err := c.RegisterRoute(ctx, route)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.routes = append(c.routes, *registeredRoute)
		c.mu.Unlock()
	}

	c.log.Info("registered service", map[string]interface{}{
		"service":  registered.Name,
		"endpoint": registered.Endpoint,
		"routes":   len(routes),
	})
	return registered, nil
}

// Deregister stops the heartbeat, removes the current service from the
// registry, and clears the session state. Local state is cleared only after
// the remote removal succeeds; on failure the session is left untouched.
//
// A heartbeat beat already in flight when Deregister runs may re-register
// the service it just removed. The window is small but not eliminated.
func (c *Client) Deregister(ctx context.Context) error {
	c.mu.Lock()
	svc := c.service
	c.mu.Unlock()
	if svc == nil {
		return NewSessionError("No service registered with this client")
	}

	c.StopHeartbeat()

	if err := c.RemoveService(ctx, svc.ID); err != nil {
		return err
	}

	c.mu.Lock()
	c.service = nil
	c.routes = nil
	c.mu.Unlock()

	c.log.Info("deregistered service", map[string]interface{}{"service": svc.Name})
	return nil
}

// Service returns a copy of the session's current registration, or nil when
// nothing is registered.
func (c *Client) Service() *Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.service == nil {
		return nil
	}
	svc := *c.service
	return &svc
}

// Routes returns a copy of the session's current route list. Mutating the
// returned slice does not affect the session.
func (c *Client) Routes() []Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	routes := make([]Route, len(c.routes))
	copy(routes, c.routes)
	return routes
}

// IsRegistered reports whether the session currently tracks a registration.
func (c *Client) IsRegistered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.service != nil
}
