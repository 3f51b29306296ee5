package fakeschwab

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	fakeAccountNumber = "12345678"
	fakeAccountHash   = "E5B2C1F0A9"
)

func (s *Server) registerTrader(g *gin.RouterGroup) {
	g.GET("/accounts", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{accountBody(c.Query("fields"))})
	})
	g.GET("/accounts/accountNumbers", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"accountNumber": fakeAccountNumber, "hashValue": fakeAccountHash}})
	})
	g.GET("/accounts/:accountNumber", func(c *gin.Context) {
		c.JSON(http.StatusOK, accountBody(c.Query("fields")))
	})
	g.GET("/accounts/:accountNumber/transactions", func(c *gin.Context) {
		if c.Query("startDate") == "" || c.Query("endDate") == "" || c.Query("types") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "startDate, endDate and types are required"})
			return
		}
		c.JSON(http.StatusOK, []gin.H{{"activityId": 1, "type": c.Query("types"), "netAmount": -125.5}})
	})
	g.GET("/accounts/:accountNumber/transactions/:transactionId", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"activityId": c.Param("transactionId"), "type": "TRADE"})
	})
	g.GET("/userPreference", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"accounts": []gin.H{{"accountNumber": fakeAccountNumber, "primaryAccount": true}}})
	})

	g.POST("/accounts/:accountNumber/orders", s.handlePlaceOrder)
	g.GET("/accounts/:accountNumber/orders", s.handleListOrders)
	g.GET("/accounts/:accountNumber/orders/:orderId", s.handleOrderStatus)
	g.DELETE("/accounts/:accountNumber/orders/:orderId", s.handleCancelOrder)
}

func accountBody(fields string) gin.H {
	acct := gin.H{"type": "MARGIN", "accountNumber": fakeAccountNumber, "currentBalances": gin.H{"cashBalance": 1000.25}}
	if strings.Contains(fields, "positions") {
		acct["positions"] = []gin.H{{"longQuantity": 10, "instrument": gin.H{"symbol": "AAPL", "assetType": "EQUITY"}}}
	}
	return gin.H{"securitiesAccount": acct}
}

func (s *Server) orderView(id string, o storedOrder) gin.H {
	var doc map[string]any
	_ = json.Unmarshal(o.Body, &doc)
	view := gin.H{}
	for k, v := range doc {
		view[k] = v
	}
	view["orderId"] = id
	view["accountNumber"] = o.Account
	view["status"] = o.Status
	return view
}

func (s *Server) handleOrderStatus(c *gin.Context) {
	s.mu.Lock()
	o, ok := s.orders[c.Param("orderId")]
	s.mu.Unlock()
	if !ok || o.Account != c.Param("accountNumber") {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, s.orderView(c.Param("orderId"), o))
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	id := c.Param("orderId")
	s.mu.Lock()
	o, ok := s.orders[id]
	if ok && o.Account == c.Param("accountNumber") {
		o.Status = "CANCELED"
		s.orders[id] = o
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleListOrders(c *gin.Context) {
	if c.Query("fromEnteredTime") == "" || c.Query("toEnteredTime") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "fromEnteredTime and toEnteredTime are required"})
		return
	}
	account := c.Param("accountNumber")
	s.mu.Lock()
	ids := make([]string, 0, len(s.orders))
	for id, o := range s.orders {
		if o.Account == account {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.orderView(id, s.orders[id]))
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) registerMarketData(g *gin.RouterGroup) {
	g.GET("/quotes", func(c *gin.Context) {
		symbols := splitSymbols(c.Query("symbols"))
		s.mu.Lock()
		s.quoteBatches = append(s.quoteBatches, len(symbols))
		s.mu.Unlock()
		out := gin.H{}
		for _, sym := range symbols {
			out[sym] = quoteBody(sym)
		}
		c.JSON(http.StatusOK, out)
	})
	g.GET("/:symbol/quotes", func(c *gin.Context) {
		sym := c.Param("symbol")
		c.JSON(http.StatusOK, gin.H{sym: quoteBody(sym)})
	})
	g.GET("/chains", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"symbol":         c.Query("symbol"),
			"status":         "SUCCESS",
			"strategy":       defaultString(c.Query("strategy"), "SINGLE"),
			"callExpDateMap": gin.H{},
			"putExpDateMap":  gin.H{},
		})
	})
	g.GET("/expirationchain", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"expirationList": []gin.H{
			{"expirationDate": "2024-06-21", "daysToExpiration": 30, "expirationType": "S", "settlementType": "P", "standard": true},
			{"expirationDate": "2024-06-28", "daysToExpiration": 37, "expirationType": "W", "settlementType": "P", "standard": false},
		}})
	})
	g.GET("/pricehistory", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"symbol": c.Query("symbol"),
			"empty":  false,
			"candles": []gin.H{
				{"open": 189.5, "high": 191.25, "low": 188.75, "close": 190.1, "volume": 51234000, "datetime": 1717045200000},
				{"open": 190.1, "high": 192.0, "low": 189.9, "close": 191.55, "volume": 48211000, "datetime": 1717131600000},
			},
		})
	})
	g.GET("/movers/:index", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"screeners": []gin.H{{"symbol": "NVDA", "netPercentChange": 4.2}}})
	})
	g.GET("/markets", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"equity": gin.H{"EQ": gin.H{"isOpen": true}}})
	})
	g.GET("/markets/:market", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{c.Param("market"): gin.H{"isOpen": false}})
	})
	g.GET("/instruments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"instruments": []gin.H{{"symbol": c.Query("symbol"), "cusip": "037833100", "assetType": "EQUITY"}}})
	})
	g.GET("/instruments/:cusip", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"instruments": []gin.H{{"symbol": "AAPL", "cusip": c.Param("cusip"), "assetType": "EQUITY"}}})
	})
}

func quoteBody(sym string) gin.H {
	return gin.H{"symbol": sym, "assetMainType": "EQUITY", "quote": gin.H{"lastPrice": 100.5, "bidPrice": 100.4, "askPrice": 100.6}}
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
