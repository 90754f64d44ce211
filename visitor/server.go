// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// sessionHeader carries the widget-generated session identifier. Absent
// header means all requests share one session, which is the single-visitor
// local case.
const sessionHeader = "X-Visit-Session"

// Server exposes the tracking and read API the browser widget calls.
type Server struct {
	tracker  *Tracker
	ctrl     *Controller
	store    *Store
	log      *Log
	renderer *Renderer
}

// NewServer wires the API over the tracker and stores. The visit log may be
// nil when the flat-list variant is not enabled.
func NewServer(tracker *Tracker, ctrl *Controller, store *Store, visitLog *Log) *Server {
	return &Server{
		tracker:  tracker,
		ctrl:     ctrl,
		store:    store,
		log:      visitLog,
		renderer: NewRenderer(store, visitLog),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.health)
	r.POST("/api/visit", s.trackVisit)
	r.GET("/api/stats", s.getStats)
	r.GET("/api/countries", s.listCountries)
	r.GET("/api/markers", s.listMarkers)
	r.GET("/api/widget", s.getWidget)
	r.GET("/api/mode", s.getMode)
	r.PUT("/api/mode", s.setMode)
	r.GET("/api/consent", s.getConsent)
	r.POST("/api/consent", s.setConsent)
	r.DELETE("/api/data", s.clearData)

	return r
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sessionID(ctx *gin.Context) string {
	if id := ctx.GetHeader(sessionHeader); id != "" {
		return id
	}

	return "default"
}

func (s *Server) trackVisit(ctx *gin.Context) {
	var req struct {
		Timezone string `json:"timezone"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	tracked, err := s.tracker.Track(ctx.Request.Context(), sessionID(ctx), req.Timezone)
	if err != nil {
		log.Printf("visitor: recording visit: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"tracked": tracked})
}

func (s *Server) getStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.renderer.Stats())
}

func (s *Server) listCountries(ctx *gin.Context) {
	n := 0

	if raw := ctx.Query("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid top parameter"})

			return
		}

		n = parsed
	}

	countries := s.renderer.TopCountries(n)
	if countries == nil {
		countries = []CountryAggregate{}
	}

	ctx.JSON(http.StatusOK, gin.H{"countries": countries})
}

func (s *Server) listMarkers(ctx *gin.Context) {
	markers, err := s.renderer.Markers()
	if err != nil {
		log.Printf("visitor: building markers: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "marker projection failed"})

		return
	}

	if markers == nil {
		markers = []Marker{}
	}

	ctx.JSON(http.StatusOK, gin.H{"markers": markers})
}

func (s *Server) getWidget(ctx *gin.Context) {
	const defaultTop = 10

	html, err := s.renderer.Widget(defaultTop)
	if err != nil {
		log.Printf("visitor: rendering widget: %v", err)
		ctx.String(http.StatusInternalServerError, "widget rendering failed")

		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) getMode(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"mode": s.ctrl.Mode()})
}

func (s *Server) setMode(ctx *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	if err := s.ctrl.SetMode(Mode(req.Mode)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"mode": s.ctrl.Mode()})
}

func (s *Server) getConsent(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"accepted": s.ctrl.Consent()})
}

func (s *Server) setConsent(ctx *gin.Context) {
	var req struct {
		Accepted bool `json:"accepted"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	if err := s.ctrl.SetConsent(req.Accepted); err != nil {
		log.Printf("visitor: persisting consent: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"accepted": s.ctrl.Consent(), "mode": s.ctrl.Mode()})
}

func (s *Server) clearData(ctx *gin.Context) {
	if err := s.store.Clear(); err != nil {
		log.Printf("visitor: clearing store: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})

		return
	}

	if s.log != nil {
		if err := s.log.Clear(); err != nil {
			log.Printf("visitor: clearing visit log: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})

			return
		}
	}

	if err := s.ctrl.ResetSessions(); err != nil {
		log.Printf("visitor: resetting session flags: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"cleared": true})
}
