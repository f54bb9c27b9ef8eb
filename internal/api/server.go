package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"book_mirror/internal/book"
	"book_mirror/internal/domain"
	"book_mirror/internal/infra"
	"book_mirror/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

// Server exposes the mirrored books to local consumers (renderers,
// dashboards) over the same shapes the upstream exchange serves, plus a
// readiness probe and an order submission passthrough.
type Server struct {
	svc    *service.BookService
	orders *infra.OrderClient
	srv    *http.Server
}

func NewServer(listen string, svc *service.BookService, orders *infra.OrderClient) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(requestID())

	s := &Server{
		svc:    svc,
		orders: orders,
		srv:    &http.Server{Addr: listen, Handler: r},
	}

	r.GET("/readyz", s.handleReady)
	r.GET("/orderbook", s.handleBooks)
	r.GET("/orderbook/:symbol", s.handleBook)
	r.POST("/orders", s.handleSubmit)

	return s
}

// requestID tags each request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := xid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() {
	go func() {
		slog.Info("api server listening", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api server failed", slog.Any("error", err))
		}
	}()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// wireLevel mirrors the upstream's level encoding: plain JSON numbers.
type wireLevel struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

type wireBook struct {
	Bids []wireLevel `json:"bids"`
	Asks []wireLevel `json:"asks"`
}

func toWire(b book.OrderBook) wireBook {
	out := wireBook{
		Bids: make([]wireLevel, len(b.Bids)),
		Asks: make([]wireLevel, len(b.Asks)),
	}
	for i, lv := range b.Bids {
		p, _ := lv.Price.Float64()
		q, _ := lv.Qty.Float64()
		out.Bids[i] = wireLevel{Price: p, Qty: q}
	}
	for i, lv := range b.Asks {
		p, _ := lv.Price.Float64()
		q, _ := lv.Qty.Float64()
		out.Asks[i] = wireLevel{Price: p, Qty: q}
	}
	return out
}

func (s *Server) handleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":   s.svc.Ready(),
		"metrics": infra.GlobalMetrics.Snapshot(),
	})
}

func (s *Server) handleBooks(c *gin.Context) {
	if !s.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	books := s.svc.Books()
	out := make(map[string]wireBook, len(books))
	for symbol, b := range books {
		out[symbol] = toWire(b)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleBook(c *gin.Context) {
	if !s.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	b, ok := s.svc.Book(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	c.JSON(http.StatusOK, toWire(b))
}

type orderRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	order := domain.Order{
		Symbol:   req.Symbol,
		Side:     domain.ParseSide(req.Side),
		Price:    decimal.NewFromFloat(req.Price),
		Quantity: decimal.NewFromFloat(req.Quantity),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := s.orders.Submit(ctx, order); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
			return
		}
		slog.Warn("order submission failed",
			slog.Any("request_id", c.GetString("request_id")), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream rejected order"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "submitted"})
}
