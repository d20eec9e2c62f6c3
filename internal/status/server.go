package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	logx "infokiosk/pkg/logx"
)

// DefaultStaleAfter is how old the last tick may be before /healthz fails.
const DefaultStaleAfter = 30 * time.Second

type Server struct {
	addr       string
	board      *Board
	log        logx.Logger
	staleAfter time.Duration
	now        func() time.Time
}

func NewServer(addr string, board *Board, log logx.Logger) *Server {
	return &Server{addr: addr, board: board, log: log, staleAfter: DefaultStaleAfter, now: time.Now}
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	s.log.Info("status api listening", logx.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		return ctx.Err()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.board.Load()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	age := s.now().Sub(snap.At)
	if age > s.staleAfter {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stale", "last_tick": snap.At, "age": age.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"slide":  snap.Slide,
		"uptime": s.now().Sub(snap.StartedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	snap := s.board.Load()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no tick yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
