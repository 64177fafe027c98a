package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/metrics"
	"github.com/roach88/attune/internal/trend"
)

// registerRoutes sets up the HTTP endpoints.
//
//	GET    /healthz
//	GET    /metrics
//	GET    /v1/models
//	GET    /v1/profiles
//	PUT    /v1/profiles/:id
//	GET    /v1/profiles/:id
//	GET    /v1/profiles/:id/readings/:date   ?condition=&temperature_c=&scheduled_events=
//	GET    /v1/profiles/:id/trend            ?window=7|30&as_of=
//	GET    /v1/profiles/:id/forecast         ?from=&days=
//	POST   /v1/profiles/:id/outcomes
//	GET    /v1/profiles/:id/outcomes
//	DELETE /v1/profiles/:id/outcomes/:outcome_id
//	GET    /v1/profiles/:id/personalization  ?strict=true
//	POST   /v1/profiles/:id/personalization/recompute
//	POST   /v1/profiles/:id/personalization/refresh
func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/models", s.handleModels)
	v1.GET("/profiles", s.handleListProfiles)

	p := v1.Group("/profiles/:id")
	p.PUT("", s.handleSaveProfile)
	p.GET("", s.handleGetProfile)
	p.GET("/readings/:date", s.handleReading)
	p.GET("/trend", s.handleTrend)
	p.GET("/forecast", s.handleForecast)
	p.POST("/outcomes", s.handleRecordOutcome)
	p.GET("/outcomes", s.handleListOutcomes)
	p.DELETE("/outcomes/:outcome_id", s.handleDeleteOutcome)
	p.GET("/personalization", s.handlePersonalization)
	p.POST("/personalization/recompute", s.handleRecompute)
	p.POST("/personalization/refresh", s.handleRefresh)
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// PersonalizationResponse adds the insufficient-data state to a profile.
// OverallAccuracy must not be shown when Insufficient is true.
type PersonalizationResponse struct {
	domain.PersonalizationProfile
	Insufficient bool `json:"insufficient"`
	Refreshed    bool `json:"refreshed,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.engine.Models()})
}

func (s *Server) handleListProfiles(c *gin.Context) {
	ps, err := s.engine.ListProfiles(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": ps})
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var p domain.BirthProfile
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "body", "invalid profile body: "+err.Error())
		return
	}
	p.ID = c.Param("id")
	if err := s.engine.SaveProfile(c.Request.Context(), p); err != nil {
		s.respondError(c, err)
		return
	}
	s.handleGetProfile(c)
}

func (s *Server) handleGetProfile(c *gin.Context) {
	p, err := s.engine.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleReading(c *gin.Context) {
	date, ok := pathDate(c, "date")
	if !ok {
		return
	}
	env, ok := queryEnvironment(c)
	if !ok {
		return
	}
	r, err := s.engine.GetReading(c.Request.Context(), c.Param("id"), date, env)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleTrend(c *gin.Context) {
	window, ok := queryInt(c, "window", trend.WeekWindow)
	if !ok {
		return
	}
	asOf, ok := s.queryDate(c, "as_of")
	if !ok {
		return
	}
	summary, err := s.engine.GetTrend(c.Request.Context(), c.Param("id"), window, asOf)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleForecast(c *gin.Context) {
	days, ok := queryInt(c, "days", 0)
	if !ok {
		return
	}
	from, ok := s.queryDate(c, "from")
	if !ok {
		return
	}
	f, err := s.engine.GetForecast(c.Request.Context(), c.Param("id"), from, days)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) handleRecordOutcome(c *gin.Context) {
	var in domain.OutcomeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "body", "invalid outcome body: "+err.Error())
		return
	}
	in.ProfileID = c.Param("id")
	rec, err := s.engine.RecordOutcome(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleListOutcomes(c *gin.Context) {
	recs, err := s.engine.ListOutcomes(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": recs})
}

func (s *Server) handleDeleteOutcome(c *gin.Context) {
	if err := s.engine.DeleteOutcome(c.Request.Context(), c.Param("id"), c.Param("outcome_id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handlePersonalization serves the stored profile. With strict=true an
// insufficient profile is a 409 instead of a zero-valued body.
func (s *Server) handlePersonalization(c *gin.Context) {
	strict, ok := queryBool(c, "strict")
	if !ok {
		return
	}
	p, err := s.engine.GetPersonalization(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if strict && p.Insufficient() {
		s.respondError(c, domain.NewInsufficientDataError(c.Param("id"), p.TotalOutcomesConsidered))
		return
	}
	c.JSON(http.StatusOK, PersonalizationResponse{PersonalizationProfile: p, Insufficient: p.Insufficient()})
}

func (s *Server) handleRecompute(c *gin.Context) {
	p, err := s.engine.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PersonalizationResponse{PersonalizationProfile: p, Insufficient: p.Insufficient(), Refreshed: true})
}

func (s *Server) handleRefresh(c *gin.Context) {
	p, refreshed, err := s.engine.RefreshIfStale(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PersonalizationResponse{PersonalizationProfile: p, Insufficient: p.Insufficient(), Refreshed: refreshed})
}

func pathDate(c *gin.Context, name string) (domain.Date, bool) {
	d, err := domain.ParseDate(c.Param(name))
	if err != nil {
		badRequest(c, name, err.Error())
		return domain.Date{}, false
	}
	return d, true
}

// queryDate parses an optional date, defaulting to today.
func (s *Server) queryDate(c *gin.Context, name string) (domain.Date, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return domain.DateOf(s.config.Clock.Now()), true
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		badRequest(c, name, err.Error())
		return domain.Date{}, false
	}
	return d, true
}

func queryBool(c *gin.Context, name string) (bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, name, name+" must be true or false")
		return false, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name, name+" must be an integer")
		return 0, false
	}
	return v, true
}

// queryEnvironment builds the optional per-call environment. Weather needs
// both condition and temperature_c.
func queryEnvironment(c *gin.Context) (*domain.Environment, bool) {
	var env domain.Environment

	condition, hasCond := c.GetQuery("condition")
	tempRaw, hasTemp := c.GetQuery("temperature_c")
	switch {
	case hasCond && hasTemp:
		temp, err := strconv.ParseFloat(tempRaw, 64)
		if err != nil || math.IsNaN(temp) || math.IsInf(temp, 0) {
			badRequest(c, "temperature_c", "temperature_c must be a finite number")
			return nil, false
		}
		env.Weather = &domain.Weather{Condition: condition, TemperatureC: temp}
	case hasCond || hasTemp:
		badRequest(c, "condition", "condition and temperature_c must be given together")
		return nil, false
	}

	if raw, ok := c.GetQuery("scheduled_events"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "scheduled_events", "scheduled_events must be a non-negative integer")
			return nil, false
		}
		env.ScheduledEvents = &n
	}

	if env.Weather == nil && env.ScheduledEvents == nil {
		return nil, true
	}
	return &env, true
}
