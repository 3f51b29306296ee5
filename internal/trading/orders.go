package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/transport"
)

const enteredTimeLayout = "2006-01-02T15:04:05.000Z"

// GetOrderStatus returns the broker's order record verbatim. Paper accounts
// have no status endpoint.
func (d *Dispatcher) GetOrderStatus(ctx context.Context, acct AccountContext, orderID string) (json.RawMessage, error) {
	if err := paperLookup(acct); err != nil {
		return nil, err
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, apierr.Missing("order_id")
	}
	target, err := d.ordersURL(acct, false, orderID)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(ctx, transport.Request{Method: http.MethodGet, URL: target})
	if err != nil {
		return nil, fmt.Errorf("order status: %w", err)
	}
	return json.RawMessage(resp.Body), nil
}

// CancelOrder asks the broker to cancel a working order.
func (d *Dispatcher) CancelOrder(ctx context.Context, acct AccountContext, orderID string) error {
	if err := paperLookup(acct); err != nil {
		return err
	}
	if strings.TrimSpace(orderID) == "" {
		return apierr.Missing("order_id")
	}
	target, err := d.ordersURL(acct, false, orderID)
	if err != nil {
		return err
	}
	if _, err := d.client.Do(ctx, transport.Request{Method: http.MethodDelete, URL: target}); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	d.log.Infof("order %s cancel requested", orderID)
	return nil
}

// ListFilter narrows ListOrders. From and To are required by the broker.
type ListFilter struct {
	From       time.Time
	To         time.Time
	Status     string
	MaxResults int
}

func (d *Dispatcher) ListOrders(ctx context.Context, acct AccountContext, f ListFilter) (json.RawMessage, error) {
	if err := paperLookup(acct); err != nil {
		return nil, err
	}
	if f.From.IsZero() || f.To.IsZero() {
		return nil, apierr.Missing("from/to")
	}
	if f.To.Before(f.From) {
		return nil, apierr.Invalid("to", f.To.Format(time.RFC3339), "before from")
	}
	target, err := d.ordersURL(acct, false)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("fromEnteredTime", f.From.UTC().Format(enteredTimeLayout))
	q.Set("toEnteredTime", f.To.UTC().Format(enteredTimeLayout))
	if f.Status != "" {
		q.Set("status", strings.ToUpper(f.Status))
	}
	if f.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(f.MaxResults))
	}
	resp, err := d.client.Do(ctx, transport.Request{Method: http.MethodGet, URL: target, Query: q})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return json.RawMessage(resp.Body), nil
}
