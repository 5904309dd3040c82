package restclient

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"simple-restclient/restclient/domain"
)

// throttledTransport espera o token bucket do host de destino antes de cada
// round trip (inclusive redirects).
type throttledTransport struct {
	limiters domain.LimiterStore
	next     http.RoundTripper
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	lim := t.limiters.Get(hostOf(req.URL))
	if lim != nil {
		if err := lim.Wait(req.Context()); err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, errors.Wrap(err, "throttle")
		}
	}
	return t.next.RoundTrip(req)
}

// hostOf normaliza o destino: "HTTP://API.example.com:80/x" e
// "http://api.example.com" caem no mesmo host.
func hostOf(u *url.URL) domain.Host {
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	port := u.Port()
	if (port == "80" && strings.EqualFold(u.Scheme, "http")) ||
		(port == "443" && strings.EqualFold(u.Scheme, "https")) {
		port = ""
	}
	if port != "" {
		return domain.Host(net.JoinHostPort(host, port))
	}
	if strings.Contains(host, ":") {
		return domain.Host("[" + host + "]")
	}
	return domain.Host(host)
}
