package hooks

import (
	"fmt"
	"net/http"

	treeship "github.com/treeship/treeship-go"
)

// Handler attests every request served by next: method, path, and
// response status, never bodies. An empty action derives one from the
// request line. The middleware uses the process-wide default client.
func Handler(next http.Handler, action string) http.Handler {
	return HandlerWithClient(next, action, nil)
}

// HandlerWithClient is Handler with an explicit client. A nil client
// falls back to treeship.Default().
func HandlerWithClient(next http.Handler, action string, client Attester) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		c := client
		if c == nil {
			c = treeship.Default()
		}
		a := action
		if a == "" {
			a = fmt.Sprintf("%s %s handled", r.Method, r.URL.Path)
		}
		attest(r.Context(), c, a, "", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
