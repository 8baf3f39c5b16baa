package dispatcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"linebot_assistant/internal/logger"
	"linebot_assistant/pkg"
)

// BackendCaller is the slice of the backend client the dispatcher needs.
type BackendCaller interface {
	Do(ctx context.Context, method, path string, body map[string]any) pkg.BackendResult
}

// route maps an action tag onto one CRUD call.
type route struct {
	method     string
	path       string
	resource   string // label used in missing-id error text
	op         string // update or delete, for the same error text
	needsID    bool
	hasBody    bool
	dateFilter bool // GET list supports ?date_filter=YYYY-MM-DD
}

// routes is the flat action table; no action maps to more than one call.
var routes = map[pkg.Action]route{
	pkg.ActionCreateSchedule:   {method: http.MethodPost, path: "/api/schedules", hasBody: true},
	pkg.ActionGetSchedule:      {method: http.MethodGet, path: "/api/schedules", dateFilter: true},
	pkg.ActionUpdateSchedule:   {method: http.MethodPut, path: "/api/schedules", resource: "Schedule", op: "update", needsID: true, hasBody: true},
	pkg.ActionDeleteSchedule:   {method: http.MethodDelete, path: "/api/schedules", resource: "Schedule", op: "delete", needsID: true},
	pkg.ActionCreateConsumable: {method: http.MethodPost, path: "/api/consumables", hasBody: true},
	pkg.ActionGetConsumable:    {method: http.MethodGet, path: "/api/consumables"},
	pkg.ActionUpdateConsumable: {method: http.MethodPut, path: "/api/consumables", resource: "Consumable", op: "update", needsID: true, hasBody: true},
	pkg.ActionDeleteConsumable: {method: http.MethodDelete, path: "/api/consumables", resource: "Consumable", op: "delete", needsID: true},
}

// Dispatcher turns classified actions into backend CRUD calls. It never
// returns a Go error: domain violations and transport failures all come back
// as error-shaped results.
type Dispatcher struct {
	backend BackendCaller
}

// New creates a dispatcher over the given backend.
func New(backend BackendCaller) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// Dispatch maps the action to its CRUD call. text_reply short-circuits with
// an empty result and no backend traffic.
func (d *Dispatcher) Dispatch(ctx context.Context, action pkg.Action, params map[string]any) pkg.BackendResult {
	if action == pkg.ActionTextReply {
		return pkg.BackendResult{}
	}

	r, ok := routes[action]
	if !ok {
		return pkg.ErrorResult(fmt.Sprintf("Unknown action: %s", action))
	}

	path := r.path
	if r.needsID {
		id, ok := paramID(params)
		if !ok {
			return pkg.ErrorResult(fmt.Sprintf("%s ID required for %s", r.resource, r.op))
		}
		path += "/" + id
	}

	if r.dateFilter {
		if date, ok := params["date"].(string); ok && date != "" {
			path += "?date_filter=" + url.QueryEscape(date)
		}
	}

	var body map[string]any
	if r.hasBody {
		body = params
		if body == nil {
			body = map[string]any{}
		}
	}

	logger.Debug().
		Str("action", string(action)).
		Str("method", r.method).
		Str("path", path).
		Msg("Dispatching backend call")

	return d.backend.Do(ctx, r.method, path, body)
}

// paramID pulls the id parameter out of the LLM-provided map. JSON numbers
// arrive as float64, but the model occasionally emits strings too.
func paramID(params map[string]any) (string, bool) {
	raw, ok := params["id"]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatInt(int64(v), 10), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return fmt.Sprint(v), true
	}
}
