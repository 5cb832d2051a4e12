package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sultan/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.version)
	assert.Empty(t, r.domains)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.version)
}

func TestDomain_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomain("test", "/test")
	reply := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("/items", reply).
		POST("/items", reply).
		PUT("/items/:id", reply).
		PATCH("/items/:id", reply).
		DELETE("/items/:id", reply)

	NewRouter(engine).Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/test/items"},
		{http.MethodPost, "/api/v1/test/items"},
		{http.MethodPut, "/api/v1/test/items/1"},
		{http.MethodPatch, "/api/v1/test/items/1"},
		{http.MethodDelete, "/api/v1/test/items/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomain_MiddlewareAndNesting(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})

	partner := NewDomain("partner", "/partner")
	partner.Use(func(c *gin.Context) {
		c.Header("X-Domain", "partner")
		c.Next()
	})
	partner.Nest("customers", "/customers").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "customers")
	})
	assert.Equal(t, "partner", partner.Name())
	assert.Equal(t, "/partner", partner.Prefix())

	r.Register(partner).Setup()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, http.MethodGet, "/api/v1/partner/customers")
	assert.Equal(t, "customers", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Api"))
	assert.Equal(t, "partner", w.Header().Get("X-Domain"))

	w = serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"), "router middleware stays inside /api")
}

type echoCollection struct{}

func (echoCollection) Create(c *gin.Context)  { c.String(http.StatusCreated, "create") }
func (echoCollection) List(c *gin.Context)    { c.String(http.StatusOK, "list") }
func (echoCollection) GetByID(c *gin.Context) { c.String(http.StatusOK, "get "+c.Param("id")) }
func (echoCollection) Update(c *gin.Context)  { c.String(http.StatusOK, "update "+c.Param("id")) }
func (echoCollection) Delete(c *gin.Context)  { c.String(http.StatusNoContent, "") }

func TestDomain_Collection(t *testing.T) {
	engine := gin.New()
	d := NewDomain("identity", "/identity")
	d.Collection("branches", "/branches", echoCollection{}).
		GET("/code/:code", func(c *gin.Context) { c.String(http.StatusOK, "code "+c.Param("code")) })
	NewRouter(engine).Register(d).Setup()

	tests := []struct {
		method string
		path   string
		code   int
		body   string
	}{
		{http.MethodPost, "/api/v1/identity/branches", http.StatusCreated, "create"},
		{http.MethodGet, "/api/v1/identity/branches", http.StatusOK, "list"},
		{http.MethodGet, "/api/v1/identity/branches/7", http.StatusOK, "get 7"},
		{http.MethodPatch, "/api/v1/identity/branches/7", http.StatusOK, "update 7"},
		{http.MethodDelete, "/api/v1/identity/branches/7", http.StatusNoContent, ""},
		{http.MethodGet, "/api/v1/identity/branches/code/hq", http.StatusOK, "code hq"},
		{http.MethodPut, "/api/v1/identity/branches/7", http.StatusNotFound, "404 page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestRegisterAPI(t *testing.T) {
	engine := gin.New()
	RegisterAPI(NewRouter(engine), Handlers{
		Customers:   handler.NewCustomerHandler(nil),
		Branches:    handler.NewBranchHandler(nil),
		Permissions: handler.NewPermissionHandler(nil),
	}).Setup()

	var got []string
	for _, route := range engine.Routes() {
		got = append(got, route.Method+" "+route.Path)
	}
	sort.Strings(got)

	require.Equal(t, []string{
		"DELETE /api/v1/identity/branches/:id",
		"DELETE /api/v1/identity/users/:user_id/permissions/:resource",
		"DELETE /api/v1/partner/customers/:id",
		"GET /api/v1/identity/branches",
		"GET /api/v1/identity/branches/:id",
		"GET /api/v1/identity/me",
		"GET /api/v1/identity/users/:user_id/permissions",
		"GET /api/v1/partner/customers",
		"GET /api/v1/partner/customers/:id",
		"GET /api/v1/partner/customers/number/:number",
		"PATCH /api/v1/identity/branches/:id",
		"PATCH /api/v1/partner/customers/:id",
		"POST /api/v1/identity/branches",
		"POST /api/v1/partner/customers",
		"PUT /api/v1/identity/users/:user_id/permissions",
	}, got)
}
