package testutil

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// maxRedirects bounds redirect chains followed inside the archive.
const maxRedirects = 10

// Replayer answers browser requests from a HAR archive.
type Replayer struct {
	exact       map[string]*HAREntry
	byPath      map[string]*HAREntry // scheme://host/path, first entry wins
	passthrough bool
	log         *zap.Logger
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithPassthrough lets unmatched requests reach the network instead of
// answering 404.
func WithPassthrough(enabled bool) ReplayerOption {
	return func(r *Replayer) { r.passthrough = enabled }
}

// WithLogger logs matched and unmatched requests at debug level.
func WithLogger(log *zap.Logger) ReplayerOption {
	return func(r *Replayer) { r.log = log }
}

// NewReplayer indexes har for lookup by full URL and by path.
func NewReplayer(har *HARLog, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		exact:  make(map[string]*HAREntry),
		byPath: make(map[string]*HAREntry),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := range har.Entries {
		entry := &har.Entries[i]
		r.exact[entry.Request.URL] = entry
		if key, ok := pathKey(entry.Request.URL); ok {
			if _, seen := r.byPath[key]; !seen {
				r.byPath[key] = entry
			}
		}
	}
	return r
}

func pathKey(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return u.Scheme + "://" + u.Host + u.Path, true
}

// Lookup returns the entry recorded for reqURL, matching the full URL first
// and the path without query second.
func (r *Replayer) Lookup(reqURL string) (*HAREntry, bool) {
	if e, ok := r.exact[reqURL]; ok {
		return e, true
	}
	if key, ok := pathKey(reqURL); ok {
		e, ok := r.byPath[key]
		return e, ok
	}
	return nil, false
}

// Middleware returns a rod hijack handler. Register it with
// router.MustAdd("*", replayer.Middleware()).
func (r *Replayer) Middleware() func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		reqURL := h.Request.URL().String()

		entry, ok := r.Lookup(reqURL)
		if !ok {
			r.log.Debug("replay miss", zap.String("url", reqURL))
			if r.passthrough {
				_ = h.LoadResponse(http.DefaultClient, true)
				return
			}
			notFound(h)
			return
		}

		entry = r.resolve(entry)
		r.log.Debug("replay hit", zap.String("url", reqURL), zap.Int("status", entry.Response.Status))
		serve(h, entry.Response)
	}
}

// resolve follows 3xx entries whose Location is also in the archive.
func (r *Replayer) resolve(entry *HAREntry) *HAREntry {
	for range maxRedirects {
		status := entry.Response.Status
		if status < 300 || status >= 400 {
			return entry
		}
		location := header(entry.Response.Headers, "location")
		if location == "" {
			return entry
		}
		next, ok := r.Lookup(location)
		if !ok {
			r.log.Debug("redirect target not recorded", zap.String("location", location))
			return entry
		}
		entry = next
	}
	return entry
}

func serve(h *rod.Hijack, resp HARResponse) {
	body := []byte(resp.Content.Text)
	if resp.Content.Encoding == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Content.Text); err == nil {
			body = decoded
		}
	}

	var headers []*proto.FetchHeaderEntry
	for _, hd := range resp.Headers {
		switch strings.ToLower(hd.Name) {
		case "content-encoding", "content-length", "location":
			continue
		}
		headers = append(headers, &proto.FetchHeaderEntry{Name: hd.Name, Value: hd.Value})
	}
	if header(resp.Headers, "content-type") == "" && resp.Content.MimeType != "" {
		headers = append(headers, &proto.FetchHeaderEntry{Name: "Content-Type", Value: resp.Content.MimeType})
	}

	payload := h.Response.Payload()
	payload.ResponseCode = resp.Status
	payload.ResponseHeaders = headers
	payload.Body = body
}

func notFound(h *rod.Hijack) {
	payload := h.Response.Payload()
	payload.ResponseCode = 404
	payload.ResponseHeaders = []*proto.FetchHeaderEntry{
		{Name: "Content-Type", Value: "text/html; charset=utf-8"},
	}
	payload.Body = []byte("<html><body><h1>Not recorded</h1></body></html>")
}

func header(headers []HARHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
