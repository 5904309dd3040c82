package restclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"
)

var errBodyClosed = errors.New("response body already closed")

// Response encapsula a resposta do executor. O corpo é lido sob demanda na
// primeira leitura, fica em cache e a conexão é liberada em seguida.
//
// Seguro para uso concorrente.
type Response struct {
	raw *http.Response

	mu   sync.Mutex
	read bool
	body []byte
	err  error
}

func newResponse(raw *http.Response) *Response {
	return &Response{raw: raw}
}

// Raw expõe a resposta original. Não leia o Body dela diretamente.
func (r *Response) Raw() *http.Response { return r.raw }

func (r *Response) StatusCode() int { return r.raw.StatusCode }

func (r *Response) Status() string { return r.raw.Status }

// Header retorna o primeiro valor do header, ou "" se ausente.
func (r *Response) Header(key string) string { return r.raw.Header.Get(key) }

func (r *Response) Headers() http.Header { return r.raw.Header.Clone() }

// ReadResponse retorna o corpo como string. Pode ser chamado várias vezes.
// Para status >= 400 retorna *HTTPError com o corpo de erro.
func (r *Response) ReadResponse() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes é como ReadResponse, sem conversão.
func (r *Response) Bytes() ([]byte, error) {
	if err := r.CheckStatus(); err != nil {
		return nil, err
	}
	b, err := r.load()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read response body")
	}
	return b, nil
}

// Body retorna um stream sobre o corpo (em cache).
func (r *Response) Body() (io.Reader, error) {
	b, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// ErrorMessage retorna o corpo de erro para status >= 400, ou "" caso contrário.
func (r *Response) ErrorMessage() (string, error) {
	if r.raw.StatusCode < http.StatusBadRequest {
		return "", nil
	}
	b, err := r.load()
	if err != nil {
		return "", errors.Wrap(err, "cannot read error body")
	}
	return string(b), nil
}

// CheckStatus retorna *HTTPError se o status for >= 400.
func (r *Response) CheckStatus() error {
	code := r.raw.StatusCode
	if code < http.StatusBadRequest {
		return nil
	}
	msg, err := r.ErrorMessage()
	if err != nil || msg == "" {
		msg = fmt.Sprintf(defaultErrorMessage, code)
	}
	return &HTTPError{StatusCode: code, Status: r.raw.Status, Message: msg}
}

// Close libera a conexão sem ler o corpo. Após Close, leituras que ainda não
// aconteceram falham.
func (r *Response) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.read {
		return nil
	}
	r.read = true
	r.err = errBodyClosed
	if r.raw.Body == nil {
		return nil
	}
	return r.raw.Body.Close()
}

func (r *Response) load() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.read {
		return r.body, r.err
	}
	r.read = true
	if r.raw.Body == nil {
		return nil, nil
	}
	defer r.raw.Body.Close()
	r.body, r.err = io.ReadAll(r.raw.Body)
	return r.body, r.err
}
