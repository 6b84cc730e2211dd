package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// APIVersion represents API version information
type APIVersion struct {
	Version    string     `json:"version"`
	Status     string     `json:"status"` // "active", "deprecated", "sunset"
	SunsetDate *time.Time `json:"sunset_date,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// VersionMiddleware provides API versioning functionality
type VersionMiddleware struct {
	supportedVersions map[string]APIVersion
	defaultVersion    string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]APIVersion{
			"v1": {
				Version: "v1",
				Status:  "active",
				Message: "Current stable API version",
			},
		},
		defaultVersion: "v1",
	}
}

// VersionHeader adds version information to response headers
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)

			if ver, exists := vm.supportedVersions[version]; exists {
				if ver.Status == "deprecated" && ver.SunsetDate != nil {
					c.Response().Header().Set("X-API-Deprecated", "true")
					c.Response().Header().Set("X-API-Sunset", ver.SunsetDate.Format(time.RFC3339))
					c.Response().Header().Set("Warning", "299 garagebill \"This API version is deprecated and will be removed on "+ver.SunsetDate.Format("2006-01-02")+"\"")
				}
				c.Response().Header().Set("X-API-Message", ver.Message)
			}

			return next(c)
		}
	}
}

// APIVersionResolver rejects paths naming an unknown version and records
// the resolved one on the context.
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := vm.extractVersionFromPath(c.Request().URL.Path)
			if version != "" {
				if _, supported := vm.supportedVersions[version]; !supported {
					return c.JSON(http.StatusNotFound, map[string]string{
						"error":              "Unsupported API version",
						"supported_versions": strings.Join(vm.getSupportedVersions(), ", "),
					})
				}
				c.Set("api_version", version)
			} else {
				c.Set("api_version", vm.defaultVersion)
			}

			return next(c)
		}
	}
}

// extractVersionFromPath reads a /vN prefix; anything else is unversioned.
func (vm *VersionMiddleware) extractVersionFromPath(path string) string {
	if !strings.HasPrefix(path, "/v") {
		return ""
	}
	segment := strings.TrimPrefix(path, "/v")
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}
	if versionNum, err := strconv.Atoi(segment); err == nil && versionNum > 0 {
		return "v" + strconv.Itoa(versionNum)
	}
	return ""
}

func (vm *VersionMiddleware) getSupportedVersions() []string {
	var versions []string
	for version, info := range vm.supportedVersions {
		if info.Status == "active" || info.Status == "deprecated" {
			versions = append(versions, version)
		}
	}
	return versions
}

// Deprecate marks a version deprecated with a sunset date.
func (vm *VersionMiddleware) Deprecate(version, message string, sunsetDate time.Time) {
	vm.supportedVersions[version] = APIVersion{
		Version:    version,
		Status:     "deprecated",
		SunsetDate: &sunsetDate,
		Message:    message,
	}
}
