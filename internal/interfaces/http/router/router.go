package router

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Access is the caller level a route requires
type Access int

const (
	// Public routes run no guard
	Public Access = iota
	// Session routes need a bearer token resolved to a user
	Session
	// Admin routes need a session whose user holds the admin role
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Session:
		return "session"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// ErrMissingGuard reports a route whose access level has no guard configured
var ErrMissingGuard = errors.New("router: missing guard")

// Guards are the access checks placed in front of handlers. Admin always runs
// after Authenticate.
type Guards struct {
	Authenticate gin.HandlerFunc
	Admin        gin.HandlerFunc
}

func (g Guards) chain(a Access) ([]gin.HandlerFunc, error) {
	switch a {
	case Public:
		return nil, nil
	case Session:
		if g.Authenticate == nil {
			return nil, fmt.Errorf("%w for %s", ErrMissingGuard, a)
		}
		return []gin.HandlerFunc{g.Authenticate}, nil
	case Admin:
		if g.Authenticate == nil || g.Admin == nil {
			return nil, fmt.Errorf("%w for %s", ErrMissingGuard, a)
		}
		return []gin.HandlerFunc{g.Authenticate, g.Admin}, nil
	default:
		return nil, fmt.Errorf("%w for %s", ErrMissingGuard, a)
	}
}

// Route describes one mounted endpoint
type Route struct {
	Method string
	Path   string
	Access Access
}

type endpoint struct {
	Route
	handler gin.HandlerFunc
}

// DomainGroup collects the endpoints of one resource under a shared prefix
type DomainGroup struct {
	name      string
	prefix    string
	access    Access
	endpoints *[]endpoint
}

// NewDomainGroup creates a group whose routes default to access
func NewDomainGroup(name, prefix string, access Access) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix, access: access, endpoints: &[]endpoint{}}
}

// As returns a view of the group that registers routes at access
func (dg *DomainGroup) As(access Access) *DomainGroup {
	return &DomainGroup{name: dg.name, prefix: dg.prefix, access: access, endpoints: dg.endpoints}
}

func (dg *DomainGroup) handle(method, relative string, h gin.HandlerFunc) *DomainGroup {
	*dg.endpoints = append(*dg.endpoints, endpoint{
		Route:   Route{Method: method, Path: relative, Access: dg.access},
		handler: h,
	})
	return dg
}

func (dg *DomainGroup) GET(relative string, h gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, relative, h)
}

func (dg *DomainGroup) POST(relative string, h gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, relative, h)
}

func (dg *DomainGroup) PUT(relative string, h gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, relative, h)
}

func (dg *DomainGroup) PATCH(relative string, h gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPatch, relative, h)
}

func (dg *DomainGroup) DELETE(relative string, h gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, relative, h)
}

// Name returns the group name
func (dg *DomainGroup) Name() string { return dg.name }

// Router mounts domain groups under /api/{version}
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	guards     Guards
	groups     []*DomainGroup
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the base path
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithMiddleware applies middleware to the versioned API group only, leaving
// engine-level routes such as /health untouched
func WithMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.middleware = append(r.middleware, middleware...) }
}

func NewRouter(engine *gin.Engine, guards Guards, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1", guards: guards}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues groups for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// BasePath returns the versioned API prefix
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registered endpoint behind the guards its access level
// requires. Nothing is mounted when a guard is missing.
func (r *Router) Setup() error {
	type mount struct {
		group    string
		relative string
		method   string
		handlers []gin.HandlerFunc
	}
	var mounts []mount
	for _, g := range r.groups {
		for _, e := range *g.endpoints {
			chain, err := r.guards.chain(e.Access)
			if err != nil {
				return fmt.Errorf("%s %s: %w", e.Method, path.Join(r.BasePath(), g.prefix, e.Path), err)
			}
			mounts = append(mounts, mount{g.prefix, e.Path, e.Method, append(chain, e.handler)})
		}
	}

	api := r.engine.Group(r.BasePath(), r.middleware...)
	for _, m := range mounts {
		api.Group(m.group).Handle(m.method, m.relative, m.handlers...)
	}
	return nil
}

// Routes lists every registered endpoint with its full path
func (r *Router) Routes() []Route {
	var routes []Route
	for _, g := range r.groups {
		for _, e := range *g.endpoints {
			full := path.Join(r.BasePath(), g.prefix, e.Path)
			routes = append(routes, Route{Method: e.Method, Path: full, Access: e.Access})
		}
	}
	return routes
}
