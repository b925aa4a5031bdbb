package main

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"handover/models"
	"handover/pkg/capture"
	"handover/pkg/config"
	"handover/pkg/export"
	"handover/pkg/handover"
	"handover/pkg/history"
	"handover/pkg/store"

	"github.com/gin-gonic/gin"
)

func setupRoutes(r *gin.Engine, s *server) {
	r.SetHTMLTemplate(s.tmpl)
	r.GET("/", s.indexHandler)
	r.POST("/submit", s.submitHandler)
	r.POST("/capture/open", s.captureOpenHandler)
	r.POST("/capture/cancel", s.captureCancelHandler)
	r.POST("/capture", s.captureHandler)
	r.GET("/export/xlsx", s.exportSpreadsheetHandler)
	r.GET("/export/pdf", s.exportDocumentHandler)
	api := r.Group("/api")
	api.GET("/handovers", s.listHandoversHandler)
	api.POST("/handovers", s.createHandoverHandler)
	r.GET("/healthz", s.healthHandler)
}

// session returns the caller's session, issuing a new cookie when needed.
func (s *server) session(c *gin.Context) *session {
	cfg, _ := s.current()
	id, _ := c.Cookie(sessionCookie)
	id, sess := s.sessions.lookup(id, s.newSession)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(cfg.SessionTTL.Seconds()), "/", "", false, true)
	return sess
}

func (s *server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	cfg, _ := s.current()
	return context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
}

func (s *server) renderSetup(c *gin.Context) {
	cfg, _ := s.current()
	c.HTML(http.StatusOK, "setup.html", gin.H{
		"Table":          models.TableName,
		"Columns":        models.Columns,
		"EnvFile":        cfg.EnvFile,
		"URLVar":         config.EnvStoreURL,
		"KeyVar":         config.EnvStoreKey,
		"AutoMigrateVar": config.EnvAutoMigrate,
	})
}

func renderForm(c *gin.Context, sess *session) {
	v := sess.ctrl.View()
	c.HTML(http.StatusOK, "index.html", gin.H{
		"View":        v,
		"Table":       history.Render(v.History, v.Loading),
		"CaptureOpen": sess.capture.State() == capture.Open,
	})
}

// applyForm copies the posted inputs into the controller. Inputs missing
// from the post are left alone.
func applyForm(c *gin.Context, ctrl *handover.Controller) {
	for _, f := range handover.Fields {
		if v, ok := c.GetPostForm(string(f)); ok {
			_ = ctrl.SetField(f, v)
		}
	}
	if v, ok := c.GetPostForm("date"); ok {
		if v == "" {
			ctrl.SetDate(time.Time{})
		} else if d, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			ctrl.SetDate(d)
		}
	}
}

func (s *server) indexHandler(c *gin.Context) {
	sess := s.session(c)
	if !sess.ctrl.Configured() {
		s.renderSetup(c)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	sess.ctrl.Initialize(ctx)
	renderForm(c, sess)
}

func (s *server) submitHandler(c *gin.Context) {
	sess := s.session(c)
	if !sess.ctrl.Configured() {
		s.renderSetup(c)
		return
	}
	applyForm(c, sess.ctrl)
	ctx, cancel := s.requestContext(c)
	defer cancel()
	// failures are already on the view
	_ = sess.ctrl.Submit(ctx)
	renderForm(c, sess)
}

func (s *server) captureOpenHandler(c *gin.Context) {
	sess := s.session(c)
	if !sess.ctrl.Configured() {
		s.renderSetup(c)
		return
	}
	applyForm(c, sess.ctrl)
	if err := sess.capture.Open(); err != nil {
		log.Printf("capture: open failed: %v", err)
	}
	renderForm(c, sess)
}

func (s *server) captureCancelHandler(c *gin.Context) {
	sess := s.session(c)
	if !sess.ctrl.Configured() {
		s.renderSetup(c)
		return
	}
	applyForm(c, sess.ctrl)
	sess.capture.Cancel()
	renderForm(c, sess)
}

// captureHandler receives the frame the page grabbed from its preview. No
// frame, or one that does not decode, leaves the preview open.
func (s *server) captureHandler(c *gin.Context) {
	sess := s.session(c)
	if !sess.ctrl.Configured() {
		s.renderSetup(c)
		return
	}
	applyForm(c, sess.ctrl)
	sess.camera.Push(c.PostForm("frame"))
	sess.capture.Capture()
	renderForm(c, sess)
}

func (s *server) exportSpreadsheetHandler(c *gin.Context) {
	sess := s.session(c)
	var buf bytes.Buffer
	if err := sess.ctrl.ExportSpreadsheet(&buf); err != nil {
		log.Printf("export spreadsheet: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.SpreadsheetFilename+`"`)
	c.Data(http.StatusOK, export.SpreadsheetContentType, buf.Bytes())
}

func (s *server) exportDocumentHandler(c *gin.Context) {
	sess := s.session(c)
	var buf bytes.Buffer
	if err := sess.ctrl.ExportDocument(&buf); err != nil {
		log.Printf("export document: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.DocumentFilename+`"`)
	c.Data(http.StatusOK, export.DocumentContentType, buf.Bytes())
}

// requireStore returns the store, or answers 503 when it is not configured.
func (s *server) requireStore(c *gin.Context) (store.Store, bool) {
	cfg, st := s.current()
	if !cfg.Configured() || st == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "store not configured",
			"setup": gin.H{"table": models.TableName, "env": []string{config.EnvStoreURL, config.EnvStoreKey}},
		})
		return nil, false
	}
	return st, true
}

func (s *server) listHandoversHandler(c *gin.Context) {
	st, ok := s.requireStore(c)
	if !ok {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	rows, err := st.ListRecords(ctx)
	if err != nil {
		log.Printf("error fetching history: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": handover.MsgLoadFailed})
		return
	}
	if rows == nil {
		rows = []models.HandoverRecord{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *server) createHandoverHandler(c *gin.Context) {
	st, ok := s.requireStore(c)
	if !ok {
		return
	}
	var req models.HandoverRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = ""
	now := time.Now()
	req.CreatedAt = now
	if req.Date.IsZero() {
		req.Date = now
	}
	req.Date = models.CalendarDate(req.Date)
	ctx, cancel := s.requestContext(c)
	defer cancel()
	rec, err := st.InsertRecord(ctx, req)
	if err != nil {
		log.Printf("error saving document: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": handover.MsgSaveFailed})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *server) healthHandler(c *gin.Context) {
	cfg, _ := s.current()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "configured": cfg.Configured(), "sessions": s.sessions.len()})
}
