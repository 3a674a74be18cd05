package snapshot

// BodyEncoding tells how a cached response body is represented as text.
type BodyEncoding string

// Body encodings.
const (
	EncodingText   BodyEncoding = "text"
	EncodingBase64 BodyEncoding = "base64"
)

// CacheEntry is one request/response pair from a named cache.
type CacheEntry struct {
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	Encoding   BodyEncoding      `json:"encoding"`
	Body       string            `json:"body"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
}

// ServiceWorker is a captured service-worker registration. It is
// informational only and never re-applied.
type ServiceWorker struct {
	Scope          string        `json:"scope"`
	UpdateViaCache string        `json:"updateViaCache,omitempty"`
	Active         *WorkerScript `json:"active,omitempty"`
	Waiting        *WorkerScript `json:"waiting,omitempty"`
	Installing     *WorkerScript `json:"installing,omitempty"`
}

// WorkerScript is one worker of a registration.
type WorkerScript struct {
	ScriptURL string `json:"scriptURL"`
	State     string `json:"state"`
}
