// Package api turns API Gateway proxy events into service calls. Each
// function binary owns one Dispatcher that routes on the body's "action".
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// Request is what an action handler receives.
type Request struct {
	Action string
	// Identity is set for actions registered with Handle.
	Identity models.Identity
	Body     json.RawMessage
	Event    events.APIGatewayProxyRequest
}

// Decode unmarshals the body into v.
func (r *Request) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrorValidation)
	}
	return nil
}

type HandlerFunc func(ctx context.Context, r *Request) (any, error)

type route struct {
	handler       HandlerFunc
	needsIdentity bool
}

type Dispatcher struct {
	routes map[string]route
	logger logging.Logger
}

func NewDispatcher(name string, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		routes: make(map[string]route),
		logger: logger.With("module", "api", "function", name),
	}
}

// Handle registers an action that needs a resolved caller.
func (d *Dispatcher) Handle(action string, h HandlerFunc) {
	d.routes[action] = route{handler: h, needsIdentity: true}
}

// HandlePublic registers an action that runs without a caller identity.
func (d *Dispatcher) HandlePublic(action string, h HandlerFunc) {
	d.routes[action] = route{handler: h}
}

// Actions lists the registered actions in order.
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.routes))
	for a := range d.routes {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func body(req events.APIGatewayProxyRequest) ([]byte, error) {
	if strings.TrimSpace(req.Body) == "" {
		return []byte("{}"), nil
	}
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64", common.ErrorValidation)
	}
	return b, nil
}

// Serve is the function entry point. It never returns an error: failures
// become error envelopes.
func (d *Dispatcher) Serve(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return respond(http.StatusOK, map[string]string{"message": "OK"}), nil
	}

	r, h, err := d.parse(req)
	if err == nil {
		var result any
		if result, err = h(ctx, r); err == nil {
			d.logger.Info(ctx, "request served", "action", r.Action, "user_id", r.Identity.LocalID)
			return respond(http.StatusOK, result), nil
		}
	}

	status, eb := classify(err)
	action := ""
	if r != nil {
		action = r.Action
	}
	if status >= http.StatusInternalServerError {
		d.logger.Error(ctx, "request failed", "action", action, "status", status, "error", err)
	} else {
		d.logger.Info(ctx, "request rejected", "action", action, "status", status, "error", err)
	}
	return respond(status, eb), nil
}

func (d *Dispatcher) parse(req events.APIGatewayProxyRequest) (*Request, HandlerFunc, error) {
	raw, err := body(req)
	if err != nil {
		return nil, nil, err
	}

	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON body", common.ErrorValidation)
	}

	r := &Request{Action: envelope.Action, Body: raw, Event: req}
	rt, ok := d.routes[envelope.Action]
	if !ok {
		return r, nil, fmt.Errorf("%w: supported actions: %s", common.ErrorUnknownAction, strings.Join(d.Actions(), ", "))
	}

	if rt.needsIdentity {
		if r.Identity, err = ResolveIdentity(req); err != nil {
			return r, nil, err
		}
	}
	return r, rt.handler, nil
}
