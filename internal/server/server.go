// Package server exposes the submission pipeline over an HTTP API.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rezonia/zatca-phase2/internal/api"
	"github.com/rezonia/zatca-phase2/internal/certstore"
	appconfig "github.com/rezonia/zatca-phase2/internal/config"
	"github.com/rezonia/zatca-phase2/internal/model"
	"github.com/rezonia/zatca-phase2/internal/processor"
	"github.com/rezonia/zatca-phase2/internal/qrcode"
)

// Config holds server configuration
type Config struct {
	Address      string
	App          appconfig.Config
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
	Logger       zerolog.Logger
}

// Server is the HTTP API server
type Server struct {
	config    *Config
	router    *gin.Engine
	submitter *processor.Submitter
	store     *certstore.FileStore
	log       zerolog.Logger
}

// Option overrides a server collaborator, mostly for tests
type Option func(*Server)

// WithSubmitter replaces the pipeline submitter
func WithSubmitter(s *processor.Submitter) Option {
	return func(srv *Server) {
		srv.submitter = s
	}
}

// WithStore replaces the certificate store
func WithStore(store *certstore.FileStore) Option {
	return func(srv *Server) {
		srv.store = store
	}
}

// NewServer creates the API server and wires the pipeline from the
// application config unless options substitute collaborators.
func NewServer(config *Config, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config: config,
		router: router,
		log:    config.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = certstore.NewFileStore(config.App.CertDir, certstore.WithLogger(s.log))
	}
	if s.submitter == nil {
		client := api.NewClient(config.App.API, api.WithLogger(s.log))
		s.submitter = processor.NewSubmitter(client, s.store,
			processor.WithThreshold(config.App.ClearanceThreshold),
			processor.WithLogger(s.log),
		)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/invoices/submit", s.handleSubmit)
		v1.POST("/invoices/validate", s.handleValidate)
		v1.POST("/invoices/qr", s.handleQR)
		v1.GET("/invoices/status/:requestId", s.handleStatus)
		v1.POST("/credit-notes", s.handleCreditNote)
		v1.POST("/certificates/csr", s.handleCSR)
	}
}

// Handler returns the underlying handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	resp, err := s.submitter.SubmitInvoice(c.Request.Context(), &req.Invoice, req.Certificate)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{Invoice: &req.Invoice, Response: resp})
}

func (s *Server) handleCreditNote(c *gin.Context) {
	var req CreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cn, resp, err := s.submitter.CreateCreditNote(c.Request.Context(), &req.Invoice, req.Reason, req.Certificate)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreditNoteResponse{CreditNote: cn, Response: resp})
}

func (s *Server) handleValidate(c *gin.Context) {
	var inv model.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := inv.Validate(); err != nil {
		var zerr *model.Error
		if errors.As(err, &zerr) {
			c.JSON(http.StatusOK, ValidationResponse{Valid: false, Fields: zerr.Fields})
			return
		}
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, ValidationResponse{Valid: true})
}

func (s *Server) handleQR(c *gin.Context) {
	var inv model.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payload, err := qrcode.Payload(&inv)
	if err != nil {
		s.renderError(c, err)
		return
	}
	image, err := qrcode.Generate(&inv)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, QRResponse{Payload: payload, QR: image})
}

func (s *Server) handleStatus(c *gin.Context) {
	inv := &model.Invoice{
		Response: &model.SubmissionResponse{RequestID: c.Param("requestId")},
	}

	status, err := s.submitter.CheckStatus(c.Request.Context(), inv)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) handleCSR(c *gin.Context) {
	var org certstore.Organization
	if err := c.ShouldBindJSON(&org); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := certstore.GenerateCSR(c.Request.Context(), s.store, org)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// renderError maps the error taxonomy onto HTTP statuses
func (s *Server) renderError(c *gin.Context, err error) {
	var zerr *model.Error
	if !errors.As(err, &zerr) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch zerr.Code {
	case model.CodeValidation:
		status = http.StatusBadRequest
	case model.CodeAPIError, model.CodeAPIConnection, model.CodeAPIRequest:
		status = http.StatusBadGateway
	}

	c.JSON(status, ErrorResponse{Error: zerr.Message, Code: zerr.Code, Fields: zerr.Fields})
}
