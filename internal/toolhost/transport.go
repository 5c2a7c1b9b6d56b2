package toolhost

import "net/http"

// headerTransport is a RoundTripper that adds static headers (credentials for
// the tool host, mostly) to every outbound request.
type headerTransport struct {
	Base    http.RoundTripper
	Headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, values := range t.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
