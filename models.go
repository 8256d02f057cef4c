package rincon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Service is a registered service record. ID and the timestamps are
// server-assigned; an ID of 0 means the record has never been accepted by
// the registry.
type Service struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Endpoint    string     `json:"endpoint"`
	HealthCheck string     `json:"health_check"`
	UpdatedAt   *time.Time `json:"updated_at"`
	CreatedAt   *time.Time `json:"created_at"`
}

// Route is a registered route record. ID is a server-assigned composite key
// such as "/users-[GET,POST]" and is empty until assigned. Method is a
// comma-joined set of HTTP methods; the server may merge ("stack") methods
// for routes sharing a path.
type Route struct {
	ID          string     `json:"id"`
	Route       string     `json:"route"`
	Method      string     `json:"method"`
	ServiceName string     `json:"service_name"`
	CreatedAt   *time.Time `json:"created_at"`
}

// Ping is a transient registry status snapshot.
type Ping struct {
	Message  string `json:"message"`
	Services int    `json:"services"`
	Routes   int    `json:"routes"`
}

// serviceRegistration is the wire payload for service registration. The
// server assigns id and the timestamps, so they are never submitted.
type serviceRegistration struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Endpoint    string `json:"endpoint"`
	HealthCheck string `json:"health_check"`
}

func newServiceRegistration(s Service) serviceRegistration {
	return serviceRegistration{
		Name:        s.Name,
		Version:     s.Version,
		Endpoint:    s.Endpoint,
		HealthCheck: s.HealthCheck,
	}
}

// routeRegistration is the wire payload for route registration, sans the
// server-assigned id and created_at.
type routeRegistration struct {
	Route       string `json:"route"`
	Method      string `json:"method"`
	ServiceName string `json:"service_name"`
}

func newRouteRegistration(r Route) routeRegistration {
	return routeRegistration{
		Route:       r.Route,
		Method:      r.Method,
		ServiceName: r.ServiceName,
	}
}

// decodeServices decodes a response body that may be either a single service
// object or an array of them, normalizing to a slice.
func decodeServices(body []byte) ([]Service, error) {
	if isJSONArray(body) {
		var services []Service
		if err := json.Unmarshal(body, &services); err != nil {
			return nil, fmt.Errorf("rincon: decode services: %w", err)
		}
		return services, nil
	}
	var svc Service
	if err := json.Unmarshal(body, &svc); err != nil {
		return nil, fmt.Errorf("rincon: decode service: %w", err)
	}
	return []Service{svc}, nil
}

// decodeRoutes decodes a response body that may be either a single route
// object or an array of them, normalizing to a slice.
func decodeRoutes(body []byte) ([]Route, error) {
	if isJSONArray(body) {
		var routes []Route
		if err := json.Unmarshal(body, &routes); err != nil {
			return nil, fmt.Errorf("rincon: decode routes: %w", err)
		}
		return routes, nil
	}
	var route Route
	if err := json.Unmarshal(body, &route); err != nil {
		return nil, fmt.Errorf("rincon: decode route: %w", err)
	}
	return []Route{route}, nil
}

// decodeJSON unmarshals a response body into v.
func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("rincon: decode response: %w", err)
	}
	return nil
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}
