package restclient

import "context"

// Headers mapeia nome do header para valor. nil = sem headers extras.
type Headers map[string]string

// Requester é o conjunto de operações por verbo HTTP comum ao executor direto
// (Client) e ao serializador (RateLimited).
type Requester interface {
	Get(ctx context.Context, url string, headers Headers) (*Response, error)
	Post(ctx context.Context, url string, body Body, headers Headers) (*Response, error)
	Put(ctx context.Context, url string, body Body, headers Headers) (*Response, error)
	Delete(ctx context.Context, url string, headers Headers) (*Response, error)
	Head(ctx context.Context, url string, headers Headers) (*Response, error)
}
