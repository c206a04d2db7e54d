// Package dispatch routes decoded XML-RPC calls to the post store and
// encodes their results or faults.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/csantero/MetaWeblogPortable/builder/metrics"
	"github.com/csantero/MetaWeblogPortable/builder/services"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

// Result is a fully encoded response ready for the transport
type Result struct {
	Body   []byte
	Status int
	Method string
	Fault  *xmlrpc.Fault // nil on success
}

// Options configures a Dispatcher. Only Posts is required.
type Options struct {
	Posts     services.PostStore
	Media     services.MediaStore
	Directory services.Directory
	Auth      services.Authenticator
	Links     services.Links
	Metrics   *metrics.RequestMetrics
	Logger    *slog.Logger

	// BaseURL prefixes media URLs returned to clients
	BaseURL string
	// LegacyNotFoundStatus answers deletePost on a missing post with HTTP 404
	LegacyNotFoundStatus bool
}

type handlerFunc func(ctx context.Context, p Params) (xmlrpc.Value, error)

// Dispatcher is safe for concurrent use
type Dispatcher struct {
	posts     services.PostStore
	media     services.MediaStore
	directory services.Directory
	auth      services.Authenticator
	links     services.Links
	metrics   *metrics.RequestMetrics
	logger    *slog.Logger

	baseURL        string
	legacyNotFound bool

	handlers map[string]handlerFunc
}

func New(opts Options) *Dispatcher {
	if opts.Auth == nil {
		opts.Auth = services.AllowAll{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	d := &Dispatcher{
		posts:          opts.Posts,
		media:          opts.Media,
		directory:      opts.Directory,
		auth:           opts.Auth,
		links:          opts.Links,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		baseURL:        opts.BaseURL,
		legacyNotFound: opts.LegacyNotFoundStatus,
	}

	d.handlers = map[string]handlerFunc{
		"blogger.getUsersBlogs":     d.getUsersBlogs,
		"blogger.getUserInfo":       d.getUserInfo,
		"blogger.deletePost":        d.deletePost,
		"metaWeblog.getRecentPosts": d.getRecentPosts,
		"metaWeblog.newPost":        d.newPost,
		"metaWeblog.getPost":        d.getPost,
		"metaWeblog.editPost":       d.editPost,
		"metaWeblog.deletePost":     d.deletePost,
		"metaWeblog.getCategories":  d.getCategories,
		"wp.getCategories":          d.getCategories,
		"mt.getCategoryList":        d.getMTCategoryList,
	}
	if d.media != nil {
		d.handlers["metaWeblog.newMediaObject"] = d.newMediaObject
	}
	return d
}

// Methods lists the supported method names
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch decodes body, runs the handler and encodes the outcome. It never
// returns an error: every failure becomes a fault document.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) Result {
	start := time.Now()

	call, err := xmlrpc.ParseCall(body)
	if err != nil {
		res := d.fault("", err)
		d.finish(res, start, len(body))
		return res
	}

	handler, ok := d.handlers[call.Method]
	if !ok {
		res := d.encodeFault(call.Method, &xmlrpc.Fault{
			Code:    FaultUnsupportedMethod,
			Message: fmt.Sprintf("unsupported method %s", call.Method),
		})
		d.finish(res, start, len(body))
		return res
	}

	value, err := d.invoke(ctx, handler, call)
	var res Result
	if err != nil {
		res = d.fault(call.Method, err)
	} else {
		res = d.encodeResult(call.Method, value)
	}
	d.finish(res, start, len(body))
	return res
}

// invoke runs a handler, turning a panic into an error
func (d *Dispatcher) invoke(ctx context.Context, h handlerFunc, call *xmlrpc.Call) (v xmlrpc.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				"method", call.Method,
				"panic", r,
				"stack", string(debug.Stack()))
			v, err = nil, fmt.Errorf("panic in %s: %v", call.Method, r)
		}
	}()
	return h(ctx, NewParams(call.Method, call.Params))
}

func (d *Dispatcher) fault(method string, err error) Result {
	f, internal := toFault(err)
	if internal {
		d.logger.Error("call failed", "method", method, "error", err)
	} else {
		d.logger.Debug("call rejected", "method", method, "error", err)
	}

	res := d.encodeFault(method, f)
	if d.legacyNotFound && f.Code == FaultNotFound && isDeleteMethod(method) {
		res.Status = http.StatusNotFound
	}
	return res
}

func isDeleteMethod(method string) bool {
	return method == "metaWeblog.deletePost" || method == "blogger.deletePost"
}

func (d *Dispatcher) encodeFault(method string, f *xmlrpc.Fault) Result {
	body, err := xmlrpc.EncodeFault(f.Code, f.Message)
	if err != nil {
		// only reachable if the message cannot be escaped; fall back to a fixed text
		f = &xmlrpc.Fault{Code: FaultInternal, Message: storageMessage}
		body, _ = xmlrpc.EncodeFault(f.Code, f.Message)
	}
	return Result{Body: body, Status: http.StatusOK, Method: method, Fault: f}
}

func (d *Dispatcher) encodeResult(method string, v xmlrpc.Value) Result {
	body, err := xmlrpc.EncodeResult(v)
	if err != nil {
		return d.fault(method, fmt.Errorf("encode %s result: %w", method, err))
	}
	return Result{Body: body, Status: http.StatusOK, Method: method}
}

func (d *Dispatcher) finish(res Result, start time.Time, requestBytes int) {
	elapsed := time.Since(start)
	method := res.Method
	if method == "" {
		method = "(malformed)"
	}

	faultCode := 0
	if res.Fault != nil {
		faultCode = res.Fault.Code
	}
	d.metrics.Record(method, elapsed, res.Fault != nil, faultCode)

	attrs := []any{
		"method", method,
		"status", res.Status,
		"duration", elapsed,
		"request_bytes", requestBytes,
		"response_bytes", len(res.Body),
	}
	if res.Fault != nil {
		attrs = append(attrs, "fault_code", res.Fault.Code, "fault", res.Fault.Message)
	}
	d.logger.Info("xmlrpc call", attrs...)
}
