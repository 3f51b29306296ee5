// Package fakeschwab is an in-process stand-in for the broker's OAuth,
// trader and market-data endpoints. Tests point the client at it and count
// the requests it receives.
package fakeschwab

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"schwab/internal/logger"

	"github.com/gin-gonic/gin"
)

// Route keys as reported by Calls.
const (
	RouteToken        = "POST /v1/oauth/token"
	RoutePlaceOrder   = "POST /trader/v1/accounts/:accountNumber/orders"
	RoutePaperOrder   = "POST /paper/trader/v1/accounts/:accountNumber/orders"
	RouteOrderStatus  = "GET /trader/v1/accounts/:accountNumber/orders/:orderId"
	RouteCancelOrder  = "DELETE /trader/v1/accounts/:accountNumber/orders/:orderId"
	RouteListOrders   = "GET /trader/v1/accounts/:accountNumber/orders"
	RouteQuotes       = "GET /marketdata/v1/quotes"
	RouteAccountNums  = "GET /trader/v1/accounts/accountNumbers"
	RoutePriceHistory = "GET /marketdata/v1/pricehistory"
)

// Server is a fake broker backed by httptest.
type Server struct {
	srv          *httptest.Server
	clientID     string
	clientSecret string

	mu            sync.Mutex
	calls         map[string]int
	issued        map[string]bool
	refreshTokens map[string]bool
	tokenSeq      int
	tokenTTL      int
	omitRefresh   bool
	tokenStatus   int
	tokenDelay    time.Duration
	rejectMsg     string
	orderSeq      int
	orders        map[string]storedOrder
	lastOrder     []byte
	lastHeader    http.Header
	quoteBatches  []int
}

type storedOrder struct {
	Account string
	Body    json.RawMessage
	Status  string
}

// New starts a fake broker that accepts the given client credentials.
func New(clientID, clientSecret string) *Server {
	s := &Server{
		clientID:      clientID,
		clientSecret:  clientSecret,
		calls:         make(map[string]int),
		issued:        make(map[string]bool),
		refreshTokens: make(map[string]bool),
		tokenTTL:      1800,
		orders:        make(map[string]storedOrder),
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.countCalls())
	router.POST("/v1/oauth/token", s.handleToken)

	trader := router.Group("/trader/v1", s.requireBearer())
	s.registerTrader(trader)
	paper := router.Group("/paper/trader/v1", s.requireBearer())
	paper.POST("/accounts/:accountNumber/orders", s.handlePlaceOrder)

	md := router.Group("/marketdata/v1", s.requireBearer())
	s.registerMarketData(md)

	s.srv = httptest.NewServer(router)
	return s
}

func (s *Server) Close() { s.srv.Close() }

func (s *Server) URL() string           { return s.srv.URL }
func (s *Server) TokenURL() string      { return s.srv.URL + "/v1/oauth/token" }
func (s *Server) AuthorizeURL() string  { return s.srv.URL + "/v1/oauth/authorize" }
func (s *Server) TraderURL() string     { return s.srv.URL + "/trader/v1" }
func (s *Server) PaperURL() string      { return s.srv.URL + "/paper/trader/v1" }
func (s *Server) MarketDataURL() string { return s.srv.URL + "/marketdata/v1" }

// Calls returns how often route ("METHOD /path/:param") was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *Server) SetTokenTTL(seconds int) {
	s.mu.Lock()
	s.tokenTTL = seconds
	s.mu.Unlock()
}

// SetOmitRefreshToken makes token responses leave out refresh_token.
func (s *Server) SetOmitRefreshToken(omit bool) {
	s.mu.Lock()
	s.omitRefresh = omit
	s.mu.Unlock()
}

// SetTokenStatus forces the token endpoint to fail with status.
func (s *Server) SetTokenStatus(status int) {
	s.mu.Lock()
	s.tokenStatus = status
	s.mu.Unlock()
}

func (s *Server) SetTokenDelay(d time.Duration) {
	s.mu.Lock()
	s.tokenDelay = d
	s.mu.Unlock()
}

// RejectOrders makes order submission answer 400 with msg. Empty accepts.
func (s *Server) RejectOrders(msg string) {
	s.mu.Lock()
	s.rejectMsg = msg
	s.mu.Unlock()
}

// IssueRefreshToken registers a refresh token as if obtained earlier.
func (s *Server) IssueRefreshToken(token string) {
	s.mu.Lock()
	s.refreshTokens[token] = true
	s.mu.Unlock()
}

func (s *Server) LastOrder() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.lastOrder...)
}

func (s *Server) LastOrderHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader.Clone()
}

// QuoteBatches returns the symbol count of each quotes request.
func (s *Server) QuoteBatches() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.quoteBatches...)
}

func (s *Server) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.FullPath()
		s.mu.Lock()
		s.calls[route]++
		s.mu.Unlock()
		c.Next()
		logger.Debugf("fakeschwab %s %s status=%d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := s.issued[token]
		s.mu.Unlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid access token"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleToken(c *gin.Context) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(s.clientID+":"+s.clientSecret))
	if c.GetHeader("Authorization") != want {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}
	s.mu.Lock()
	delay, status := s.tokenDelay, s.tokenStatus
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		c.JSON(status, gin.H{"error": "server_error", "error_description": "token endpoint unavailable"})
		return
	}
	switch c.PostForm("grant_type") {
	case "authorization_code":
		if c.PostForm("code") == "" || c.PostForm("redirect_uri") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
	case "refresh_token":
		s.mu.Lock()
		known := s.refreshTokens[c.PostForm("refresh_token")]
		s.mu.Unlock()
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
			return
		}
	case "client_credentials":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}

	s.mu.Lock()
	s.tokenSeq++
	access := fmt.Sprintf("access-%d", s.tokenSeq)
	s.issued[access] = true
	resp := gin.H{"access_token": access, "token_type": "Bearer", "scope": "api"}
	if s.tokenTTL > 0 {
		resp["expires_in"] = s.tokenTTL
	}
	if !s.omitRefresh {
		refresh := fmt.Sprintf("refresh-%d", s.tokenSeq)
		s.refreshTokens[refresh] = true
		resp["refresh_token"] = refresh
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "order body is not valid JSON"})
		return
	}
	account := c.Param("accountNumber")
	s.mu.Lock()
	s.lastOrder = body
	s.lastHeader = c.Request.Header.Clone()
	reject := s.rejectMsg
	if reject != "" {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"message": reject, "errors": []string{reject}})
		return
	}
	s.orderSeq++
	id := fmt.Sprintf("%d", 1000+s.orderSeq)
	s.orders[id] = storedOrder{Account: account, Body: body, Status: "WORKING"}
	s.mu.Unlock()

	base := strings.TrimSuffix(c.Request.URL.Path, "/")
	c.Header("Location", s.srv.URL+base+"/"+id)
	c.Status(http.StatusCreated)
}
