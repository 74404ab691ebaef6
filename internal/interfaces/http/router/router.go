// Package router assembles the HTTP engine: global middleware, the
// versioned API group and one route group per domain.
package router

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// APIBase prefixes every authenticated route.
const APIBase = "/api/v1"

// mountAPI creates the API group with its middleware and registers the
// domain groups under it. Routes outside the group, like /health, never
// see the API middleware.
func mountAPI(engine *gin.Engine, mw []gin.HandlerFunc, groups ...*DomainGroup) {
	api := engine.Group(APIBase, mw...)
	for _, g := range groups {
		g.mount(api)
	}
}

// DomainGroup collects the routes of one bounded context before they are
// mounted, so the whole table can be listed and checked in tests.
type DomainGroup struct {
	name      string
	prefix    string
	mw        []gin.HandlerFunc
	routes    []route
	subgroups []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware that runs for every route of the group and its
// subgroups.
func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.mw = append(g.mw, mw...)
	return g
}

func (g *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *DomainGroup) GET(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodGet, path, h)
}

func (g *DomainGroup) POST(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodPost, path, h)
}

func (g *DomainGroup) PUT(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodPut, path, h)
}

func (g *DomainGroup) DELETE(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodDelete, path, h)
}

// Group nests a resource under this group's prefix.
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	g.subgroups = append(g.subgroups, sub)
	return sub
}

func (g *DomainGroup) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.mw...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, sub := range g.subgroups {
		sub.mount(rg)
	}
}

// Routes lists "METHOD path" for every route of the group and its
// subgroups, relative to the group's parent, sorted
func (g *DomainGroup) Routes() []string {
	var out []string
	g.collect(g.prefix, &out)
	sort.Strings(out)
	return out
}

func (g *DomainGroup) collect(base string, out *[]string) {
	for _, r := range g.routes {
		*out = append(*out, r.method+" "+base+r.path)
	}
	for _, sub := range g.subgroups {
		sub.collect(base+sub.prefix, out)
	}
}
