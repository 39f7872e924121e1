// Package testserver is an in-process fake of the catalog backend. It keeps
// its data in memory, answers conditional reads with 304 and counts what it
// served so tests can assert on network behaviour.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/profilewizard/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Technology is the wire form of a catalog entry.
type Technology struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// Item is the wire form of a profile item.
type Item struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Years  int    `json:"years"`
}

// Stats counts the GET answers the server sent.
type Stats struct {
	Full        int
	NotModified int
	Mutations   int
}

const (
	familyTechnologies = "technologies"
	familyProfile      = "profile"
)

var kinds = map[string]bool{"skills": true, "experience": true, "education": true}

// Server is a gin application behind an httptest.Server.
type Server struct {
	engine *gin.Engine
	ts     *httptest.Server

	mu       sync.Mutex
	techs    map[string]Technology
	items    map[string]map[string]Item
	versions map[string]int
	stats    Stats
	token    string
	failures []int
}

var _ component.Component = (*Server)(nil)

// New builds the server. Call Start before use.
func New() *Server {
	s := &Server{
		techs:    make(map[string]Technology),
		items:    make(map[string]map[string]Item),
		versions: map[string]int{familyTechnologies: 1, familyProfile: 1},
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestID(), s.authenticate(), s.injectFailure())
	s.routes()
	return s
}

// Start starts serving on a random local port.
func Start() *Server {
	s := New()
	_ = s.Start(context.Background())
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	tech := api.Group("/technologies")
	tech.GET("", s.listTechnologies)
	tech.GET("/:id", s.getTechnology)
	tech.POST("", s.createTechnology)
	tech.PUT("/:id", s.updateTechnology)
	tech.DELETE("/:id", s.deleteTechnology)

	profile := api.Group("/profile/:kind", validKind)
	profile.GET("", s.listItems)
	profile.POST("", s.createItem)
	profile.PUT("/:id", s.updateItem)
	profile.DELETE("/:id", s.deleteItem)
}

// --- component.Component ---

// Name implements component.Component.
func (s *Server) Name() string { return "testserver" }

// Start implements component.Component.
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts != nil {
		return fmt.Errorf("testserver already started")
	}
	s.ts = httptest.NewServer(s.engine)
	return nil
}

// Stop implements component.Component.
func (s *Server) Stop(context.Context) error {
	s.mu.Lock()
	ts := s.ts
	s.ts = nil
	s.mu.Unlock()
	if ts != nil {
		ts.Close()
	}
	return nil
}

// Health implements component.Component.
func (s *Server) Health(context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Close stops the server.
func (s *Server) Close() { _ = s.Stop(context.Background()) }

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// --- test controls ---

// RequireToken makes every request without "Bearer <token>" fail with 401.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// FailNext makes the next n requests answer with status.
func (s *Server) FailNext(status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures = append(s.failures, status)
	}
}

// Stats returns the counters since the last Reset.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ResetStats zeroes the counters.
func (s *Server) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = Stats{}
}

// SeedTechnology stores t directly, as another admin would, and changes the
// ETag of the catalog.
func (s *Server) SeedTechnology(t Technology) Technology {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.techs[t.ID] = t
	s.versions[familyTechnologies]++
	return t
}

// SeedItem stores it directly and changes the ETag of the profile.
func (s *Server) SeedItem(it Item) Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	s.putItemLocked(it)
	s.versions[familyProfile]++
	return it
}

// --- middleware ---

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()
		if token != "" && c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) injectFailure() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		status := 0
		if len(s.failures) > 0 {
			status = s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

func validKind(c *gin.Context) {
	if !kinds[c.Param("kind")] {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown profile section"})
		return
	}
	c.Next()
}

// --- handlers ---

// conditional answers 304 when the client already holds the current
// version of family. It reports whether the handler should stop.
func (s *Server) conditional(c *gin.Context, family string) bool {
	s.mu.Lock()
	etag := fmt.Sprintf(`"%s-%d"`, family, s.versions[family])
	notModified := matchesETag(c.GetHeader("If-None-Match"), etag)
	if notModified {
		s.stats.NotModified++
	} else {
		s.stats.Full++
	}
	s.mu.Unlock()

	c.Header("ETag", etag)
	if notModified {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}

func (s *Server) listTechnologies(c *gin.Context) {
	if s.conditional(c, familyTechnologies) {
		return
	}
	s.mu.Lock()
	out := make([]Technology, 0, len(s.techs))
	for _, t := range s.techs {
		out = append(out, t)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, out)
}

func (s *Server) getTechnology(c *gin.Context) {
	s.mu.Lock()
	t, ok := s.techs[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "technology not found"})
		return
	}
	if s.conditional(c, familyTechnologies) {
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) createTechnology(c *gin.Context) {
	var t Technology
	if err := c.ShouldBindJSON(&t); err != nil || t.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid technology"})
		return
	}
	s.mu.Lock()
	for _, existing := range s.techs {
		if strings.EqualFold(existing.Name, t.Name) {
			s.mu.Unlock()
			c.JSON(http.StatusConflict, gin.H{"error": "technology exists"})
			return
		}
	}
	t.ID = uuid.NewString()
	s.techs[t.ID] = t
	s.mutatedLocked(familyTechnologies)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTechnology(c *gin.Context) {
	var t Technology
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid technology"})
		return
	}
	t.ID = c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.techs[t.ID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "technology not found"})
		return
	}
	s.techs[t.ID] = t
	s.mutatedLocked(familyTechnologies)
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTechnology(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if _, ok := s.techs[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "technology not found"})
		return
	}
	delete(s.techs, id)
	s.mutatedLocked(familyTechnologies)
	c.Status(http.StatusNoContent)
}

func (s *Server) listItems(c *gin.Context) {
	if s.conditional(c, familyProfile) {
		return
	}
	s.mu.Lock()
	byID := s.items[c.Param("kind")]
	out := make([]Item, 0, len(byID))
	for _, it := range byID {
		out = append(out, it)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	c.JSON(http.StatusOK, out)
}

func (s *Server) createItem(c *gin.Context) {
	var it Item
	if err := c.ShouldBindJSON(&it); err != nil || it.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item"})
		return
	}
	it.ID = uuid.NewString()
	it.Kind = c.Param("kind")
	s.mu.Lock()
	s.putItemLocked(it)
	s.mutatedLocked(familyProfile)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, it)
}

func (s *Server) updateItem(c *gin.Context) {
	var it Item
	if err := c.ShouldBindJSON(&it); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item"})
		return
	}
	it.ID, it.Kind = c.Param("id"), c.Param("kind")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.Kind][it.ID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	s.putItemLocked(it)
	s.mutatedLocked(familyProfile)
	c.JSON(http.StatusOK, it)
}

func (s *Server) deleteItem(c *gin.Context) {
	kind, id := c.Param("kind"), c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[kind][id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	delete(s.items[kind], id)
	s.mutatedLocked(familyProfile)
	c.Status(http.StatusNoContent)
}

func (s *Server) putItemLocked(it Item) {
	if s.items[it.Kind] == nil {
		s.items[it.Kind] = make(map[string]Item)
	}
	s.items[it.Kind][it.ID] = it
}

func (s *Server) mutatedLocked(family string) {
	s.versions[family]++
	s.stats.Mutations++
}
