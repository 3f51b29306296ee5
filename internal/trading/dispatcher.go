// Package trading routes order requests to the right builder, validates the
// result and submits it to the live or paper orders endpoint.
package trading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/logger"
	"schwab/internal/order"
	"schwab/internal/strategy"
	"schwab/internal/transport"

	"github.com/google/uuid"
)

// Doer performs one authenticated request.
type Doer interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// AccountContext selects the account and endpoint family of a call.
type AccountContext struct {
	AccountID string
	Paper     bool
}

// Receipt is the broker's answer to an accepted order.
type Receipt struct {
	Status         int
	OrderID        string
	Location       string
	Body           json.RawMessage
	IdempotencyKey string
	Document       order.Document
}

// Submission is what the dispatcher hands to a Recorder after every attempt
// that reached the network.
type Submission struct {
	AccountID      string
	Paper          bool
	AssetType      order.AssetType
	Kind           string
	Document       order.Document
	Status         int
	OrderID        string
	Error          string
	IdempotencyKey string
	SubmittedAt    time.Time
}

type Recorder interface {
	Record(ctx context.Context, s Submission) error
}

type Options struct {
	TraderURL         string
	PaperURL          string
	ValidateSchema    bool
	IdempotencyHeader string
	// DefaultDuration applies when params carry no duration.
	DefaultDuration string
	Catalog         *strategy.Catalog
	Recorder        Recorder
	Now             func() time.Time
}

type Dispatcher struct {
	client Doer
	opts   Options
	log    *logger.Component
}

func NewDispatcher(client Doer, opts Options) *Dispatcher {
	if opts.Catalog == nil {
		opts.Catalog = strategy.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.TraderURL = strings.TrimRight(strings.TrimSpace(opts.TraderURL), "/")
	opts.PaperURL = strings.TrimRight(strings.TrimSpace(opts.PaperURL), "/")
	return &Dispatcher{client: client, opts: opts, log: logger.With("trading")}
}

// Build produces the order document for kind without sending it.
func (d *Dispatcher) Build(assetType, kind string, params strategy.Params) (order.Document, error) {
	at, ok := order.ParseAssetType(assetType)
	if !ok {
		return order.Document{}, &apierr.ValidationError{Kind: apierr.UnsupportedAssetType, Value: assetType}
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	params = d.withDefaults(params)
	switch at {
	case order.AssetEquity:
		return equityOrder(kind, params)
	case order.AssetForex:
		return forexOrder(kind, params)
	default:
		return d.opts.Catalog.Build(kind, string(at), params)
	}
}

func (d *Dispatcher) withDefaults(params strategy.Params) strategy.Params {
	if d.opts.DefaultDuration == "" || params.String(strategy.ParamDuration) != "" {
		return params
	}
	out := make(strategy.Params, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[strategy.ParamDuration] = d.opts.DefaultDuration
	return out
}

// PlaceOrder builds the order for kind and submits it. Every validation
// failure is reported before any network call.
func (d *Dispatcher) PlaceOrder(ctx context.Context, acct AccountContext, assetType, kind string, params strategy.Params) (*Receipt, error) {
	doc, err := d.Build(assetType, kind, params)
	if err != nil {
		return nil, err
	}
	d.log.Debugf("order %s/%s built", assetType, kind)
	at, _ := order.ParseAssetType(assetType)
	return d.submit(ctx, acct, at, kind, doc)
}

// Submit sends a document built elsewhere.
func (d *Dispatcher) Submit(ctx context.Context, acct AccountContext, doc order.Document) (*Receipt, error) {
	return d.submit(ctx, acct, "", "", doc)
}

func (d *Dispatcher) submit(ctx context.Context, acct AccountContext, at order.AssetType, kind string, doc order.Document) (*Receipt, error) {
	if d.opts.ValidateSchema {
		if err := order.Validate(doc); err != nil {
			return nil, err
		}
		d.log.Debugf("order %s validated", kind)
	}
	target, err := d.ordersURL(acct, true)
	if err != nil {
		return nil, err
	}
	d.log.Debugf("order %s routed to %s (paper=%t)", kind, target, acct.Paper)

	header := http.Header{}
	key := ""
	if d.opts.IdempotencyHeader != "" {
		key = uuid.NewString()
		header.Set(d.opts.IdempotencyHeader, key)
	}
	sub := Submission{
		AccountID:      acct.AccountID,
		Paper:          acct.Paper,
		AssetType:      at,
		Kind:           kind,
		Document:       doc,
		IdempotencyKey: key,
		SubmittedAt:    d.opts.Now(),
	}

	resp, err := d.client.Do(ctx, transport.Request{Method: http.MethodPost, URL: target, Body: doc, Header: header})
	if err != nil {
		var he *apierr.HTTPError
		if errors.As(err, &he) {
			sub.Status = he.Status
			d.log.Warnf("order %s rejected: status=%d %s", kind, he.Status, he.Message)
		}
		sub.Error = err.Error()
		if sub.Status != 0 {
			d.record(ctx, sub)
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	location := resp.Header.Get("Location")
	receipt := &Receipt{
		Status:         resp.Status,
		OrderID:        orderIDFromLocation(location),
		Location:       location,
		Body:           json.RawMessage(resp.Body),
		IdempotencyKey: key,
		Document:       doc,
	}
	sub.Status = resp.Status
	sub.OrderID = receipt.OrderID
	d.record(ctx, sub)
	d.log.Infof("order %s accepted: status=%d id=%s", kind, resp.Status, receipt.OrderID)
	return receipt, nil
}

func (d *Dispatcher) record(ctx context.Context, sub Submission) {
	if d.opts.Recorder == nil {
		return
	}
	if err := d.opts.Recorder.Record(ctx, sub); err != nil {
		d.log.Warnf("journal record failed: %v", err)
	}
}

// ordersURL resolves {base}/accounts/{id}/orders. Only placement may use the
// paper endpoint family.
// paperLookup rejects order lookups on paper accounts, which have no status
// or cancel endpoints.
func paperLookup(acct AccountContext) error {
	if acct.Paper {
		return &apierr.ValidationError{Kind: apierr.PaperStatusUnsupported, Value: acct.AccountID}
	}
	return nil
}

func (d *Dispatcher) ordersURL(acct AccountContext, placing bool, extra ...string) (string, error) {
	if !placing {
		if err := paperLookup(acct); err != nil {
			return "", err
		}
	}
	if strings.TrimSpace(acct.AccountID) == "" {
		return "", apierr.Missing("account_id")
	}
	base := d.opts.TraderURL
	if acct.Paper {
		if d.opts.PaperURL == "" {
			return "", &apierr.ValidationError{Kind: apierr.PaperEndpointUnavailable, Value: acct.AccountID}
		}
		base = d.opts.PaperURL
	}
	segments := append([]string{"accounts", acct.AccountID, "orders"}, extra...)
	return transport.Endpoint(base, segments...)
}

func orderIDFromLocation(location string) string {
	location = strings.TrimRight(strings.TrimSpace(location), "/")
	if location == "" {
		return ""
	}
	return path.Base(location)
}
