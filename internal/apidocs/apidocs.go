// Package apidocs serves a Swagger 2.0 document built from the routes
// registered on the echo instance, for the /swagger UI.
package apidocs

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

type routeDoc struct {
	mu  sync.RWMutex
	doc string
}

func (d *routeDoc) ReadDoc() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

var registered = &routeDoc{doc: `{"swagger":"2.0","info":{"title":"garagebill","version":""},"paths":{}}`}

func init() {
	swag.Register(swag.Name, registered)
}

var pathParam = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// Publish rebuilds the document from e's routes. Call it after every
// route is registered.
func Publish(e *echo.Echo, title, version string) error {
	doc, err := Build(e.Routes(), title, version)
	if err != nil {
		return err
	}
	registered.mu.Lock()
	registered.doc = doc
	registered.mu.Unlock()
	return nil
}

// Build renders the Swagger JSON for routes. Routes under /v1 are marked
// as requiring a bearer token.
func Build(routes []*echo.Route, title, version string) (string, error) {
	paths := make(map[string]map[string]interface{})

	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	for _, r := range routes {
		if strings.HasPrefix(r.Path, "/swagger") || r.Method == echo.RouteNotFound {
			continue
		}
		path := pathParam.ReplaceAllString(r.Path, "{$1}")
		if paths[path] == nil {
			paths[path] = make(map[string]interface{})
		}

		op := map[string]interface{}{
			"summary":     r.Method + " " + path,
			"operationId": r.Name,
			"tags":        []string{tagFor(path)},
			"produces":    []string{"application/json"},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{"description": "Success"},
				"400": map[string]interface{}{"description": "Validation failed", "schema": map[string]interface{}{"$ref": "#/definitions/ErrorResponse"}},
			},
		}

		var params []map[string]interface{}
		for _, m := range pathParam.FindAllStringSubmatch(r.Path, -1) {
			params = append(params, map[string]interface{}{
				"in": "path", "name": m[1], "required": true, "type": "string", "format": "uuid",
			})
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			op["consumes"] = []string{"application/json"}
			params = append(params, map[string]interface{}{
				"in": "body", "name": "body", "required": false, "schema": map[string]interface{}{"type": "object"},
			})
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if strings.HasPrefix(path, "/v1/") {
			op["security"] = []map[string][]string{{"BearerAuth": {}}}
		}

		paths[path][strings.ToLower(r.Method)] = op
	}

	doc := map[string]interface{}{
		"swagger": "2.0",
		"info": map[string]interface{}{
			"title":   title,
			"version": version,
		},
		"basePath": "/",
		"paths":    paths,
		"securityDefinitions": map[string]interface{}{
			"BearerAuth": map[string]interface{}{"type": "apiKey", "name": "Authorization", "in": "header"},
		},
		"definitions": map[string]interface{}{
			"ErrorResponse": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"error": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"code":    map[string]interface{}{"type": "string"},
							"message": map[string]interface{}{"type": "string"},
							"details": map[string]interface{}{"type": "object", "additionalProperties": map[string]interface{}{"type": "string"}},
						},
					},
				},
			},
		},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// tagFor groups /v1/parts/... under "parts", /health under "health".
func tagFor(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 1 && segments[0] == "v1" {
		return segments[1]
	}
	return segments[0]
}
