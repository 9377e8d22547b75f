// Package api is the console's client for the church REST backend.
//
// The backend's endpoint catalog is a fixed external contract: each screen's
// data need maps to one documented route such as GET /all-offering or
// DELETE /delete-slider/:id. Responses are validated against the shape the
// console expects before anything downstream sees them.
package api

import (
	"fmt"
	"net/url"
	"strings"
)

// Shape is the JSON kind an endpoint's payload must have.
type Shape int

const (
	// ShapeAny accepts whatever the backend returns (e.g. delete acknowledgements).
	ShapeAny Shape = iota
	// ShapeList requires an array of objects.
	ShapeList
	// ShapeObject requires a single object.
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeObject:
		return "object"
	default:
		return "any"
	}
}

// Endpoint describes one backend route.
type Endpoint struct {
	Name   string // metrics label, e.g. "all-offering"
	Method string
	Path   string // may contain :param placeholders

	// Envelope is the top-level key holding the payload ("offerings",
	// "stream"). Empty means the payload is the whole body.
	Envelope string
	Shape    Shape
}

// URL joins the endpoint path onto base, substituting :param placeholders.
// Every placeholder must have a non-empty value.
func (e Endpoint) URL(base string, params map[string]string) (string, error) {
	segments := strings.Split(strings.TrimPrefix(e.Path, "/"), "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		val := params[name]
		if val == "" {
			return "", fmt.Errorf("endpoint %s: missing path parameter %q", e.Name, name)
		}
		segments[i] = url.PathEscape(val)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/"), nil
}

// List builds a GET endpoint returning an array under envelope.
func List(path, envelope string) Endpoint {
	return Endpoint{Name: endpointName(path), Method: "GET", Path: path, Envelope: envelope, Shape: ShapeList}
}

// Create builds a POST endpoint returning the created object under envelope.
func Create(path, envelope string) Endpoint {
	return Endpoint{Name: endpointName(path), Method: "POST", Path: path, Envelope: envelope, Shape: ShapeAny}
}

// Update builds a PUT endpoint for one record.
func Update(path, envelope string) Endpoint {
	return Endpoint{Name: endpointName(path), Method: "PUT", Path: path, Envelope: envelope, Shape: ShapeAny}
}

// Delete builds a DELETE endpoint for one record.
func Delete(path string) Endpoint {
	return Endpoint{Name: endpointName(path), Method: "DELETE", Path: path, Shape: ShapeAny}
}

// Get builds a GET endpoint returning one object under envelope.
func Get(path, envelope string) Endpoint {
	return Endpoint{Name: endpointName(path), Method: "GET", Path: path, Envelope: envelope, Shape: ShapeObject}
}

// endpointName keeps the static part of a path as a low-cardinality label.
func endpointName(path string) string {
	var parts []string
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" && !strings.HasPrefix(seg, ":") {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}
