package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ftl/ais-nmea/send"
	"github.com/ftl/ais-nmea/sentence"
)

// DefaultAddr is the default listening address of the API server.
const DefaultAddr = "localhost:8374"

// DefaultSendTimeout is used if no timeout is configured for sending.
const DefaultSendTimeout = 10 * time.Second

// Sender transmits requests through a transponder.
type Sender interface {
	Send(ctx context.Context, request send.Request, timeout time.Duration) (sentence.Acknowledgement, error)
}

// Stats provides the number of received messages per message type.
type Stats interface {
	Counts() map[int]int
}

// Option configures the Server.
type Option func(*Server)

// WithSender enables the /send route.
func WithSender(sender Sender, timeout time.Duration) Option {
	return func(s *Server) {
		s.sender = sender
		if timeout > 0 {
			s.sendTimeout = timeout
		}
	}
}

// WithStats adds the message counts to the health report.
func WithStats(stats Stats) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

// WithTalker sets the talker ID of encoded sentences.
func WithTalker(talker string) Option {
	return func(s *Server) {
		s.talker = talker
	}
}

// Server provides decoding, encoding and sending of AIS messages over HTTP.
type Server struct {
	router *gin.Engine
	server *http.Server
	addr   string
	log    *logrus.Entry

	talker      string
	sender      Sender
	sendTimeout time.Duration
	stats       Stats
	fragmenters map[string]*sentence.Fragmenter
}

// NewServer creates a new API server listening on the given address.
func NewServer(addr string, log *logrus.Entry, options ...Option) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	result := &Server{
		addr:        addr,
		log:         log,
		talker:      "AI",
		sendTimeout: DefaultSendTimeout,
	}
	for _, option := range options {
		option(result)
	}
	result.fragmenters = map[string]*sentence.Fragmenter{
		"A": sentence.NewVDMFragmenter(result.talker, "A"),
		"B": sentence.NewVDMFragmenter(result.talker, "B"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(result.logMiddleware, gin.Recovery())

	router.GET("/health", result.handleHealth)
	router.POST("/decode", result.handleDecode)
	router.POST("/encode", result.handleEncode)
	router.POST("/send", result.handleSend)

	result.router = router
	result.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return result
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP requests until the context is done.
func (s *Server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("API server starting")
		errs <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("API server forcefully shut down")
		return err
	}
	s.log.Info("API server stopped")
	return nil
}

func (s *Server) logMiddleware(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	raw := c.Request.URL.RawQuery

	c.Next()

	end := time.Now()
	if raw != "" {
		path = path + "?" + raw
	}
	s.log.WithFields(logrus.Fields{
		"latency":     end.Sub(start).String(),
		"client_ip":   c.ClientIP(),
		"method":      c.Request.Method,
		"status_code": c.Writer.Status(),
		"error":       c.Errors.ByType(gin.ErrorTypePrivate).String(),
		"body_size":   c.Writer.Size(),
		"path":        path,
	}).Debug("handled request")
}
