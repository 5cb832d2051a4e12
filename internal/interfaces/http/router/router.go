// Package router mounts the partner and identity domains under /api/<version>.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mountable attaches its routes below a parent group
type Mountable interface {
	Mount(parent *gin.RouterGroup)
}

// Router owns the versioned API group. Middleware added with Use runs for
// every mounted domain but not for routes registered directly on the engine,
// such as /health.
type Router struct {
	engine  *gin.Engine
	version string
	chain   []gin.HandlerFunc
	domains []Mountable
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion overrides the default "v1" prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.chain = append(r.chain, middleware...)
	return r
}

func (r *Router) Register(m Mountable) *Router {
	r.domains = append(r.domains, m)
	return r
}

// Setup creates the /api/<version> group and mounts every registered domain.
// Call it once, after all Use and Register calls.
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.version, r.chain...)
	for _, d := range r.domains {
		d.Mount(api)
	}
}

// Collection is the handler set shared by customers and branches
type Collection interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	GetByID(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type endpoint struct {
	method, path string
	handlers     []gin.HandlerFunc
}

// Domain is a path prefix holding endpoints and nested domains
type Domain struct {
	name      string
	prefix    string
	chain     []gin.HandlerFunc
	endpoints []endpoint
	children  []*Domain
}

func NewDomain(name, prefix string) *Domain {
	return &Domain{name: name, prefix: prefix}
}

func (d *Domain) Name() string   { return d.name }
func (d *Domain) Prefix() string { return d.prefix }

// Use adds middleware scoped to this domain and its children
func (d *Domain) Use(middleware ...gin.HandlerFunc) *Domain {
	d.chain = append(d.chain, middleware...)
	return d
}

func (d *Domain) Handle(method, path string, handlers ...gin.HandlerFunc) *Domain {
	d.endpoints = append(d.endpoints, endpoint{method: method, path: path, handlers: handlers})
	return d
}

func (d *Domain) GET(path string, h ...gin.HandlerFunc) *Domain {
	return d.Handle(http.MethodGet, path, h...)
}

func (d *Domain) POST(path string, h ...gin.HandlerFunc) *Domain {
	return d.Handle(http.MethodPost, path, h...)
}

func (d *Domain) PUT(path string, h ...gin.HandlerFunc) *Domain {
	return d.Handle(http.MethodPut, path, h...)
}

func (d *Domain) PATCH(path string, h ...gin.HandlerFunc) *Domain {
	return d.Handle(http.MethodPatch, path, h...)
}

func (d *Domain) DELETE(path string, h ...gin.HandlerFunc) *Domain {
	return d.Handle(http.MethodDelete, path, h...)
}

// Nest adds a child domain below d and returns it
func (d *Domain) Nest(name, prefix string) *Domain {
	child := NewDomain(name, prefix)
	d.children = append(d.children, child)
	return child
}

// Collection nests prefix below d and registers the five CRUD endpoints on
// it: POST and GET on the root, GET, PATCH and DELETE on /:id. The returned
// domain accepts extra lookups such as /number/:number.
func (d *Domain) Collection(name, prefix string, h Collection) *Domain {
	return d.Nest(name, prefix).
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.GetByID).
		PATCH("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

// Mount implements Mountable
func (d *Domain) Mount(parent *gin.RouterGroup) {
	group := parent.Group(d.prefix, d.chain...)
	for _, e := range d.endpoints {
		group.Handle(e.method, e.path, e.handlers...)
	}
	for _, child := range d.children {
		child.Mount(group)
	}
}
