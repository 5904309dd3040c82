package restclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	contentTypeText   = "text/plain; charset=utf-8"
	contentTypeBinary = "application/octet-stream"
	contentTypeForm   = "application/x-www-form-urlencoded"
)

// Body é o corpo opcional de POST/PUT. Use os construtores Text, Bytes, Stream,
// Form e Multipart. Um Content-Type passado nos headers tem precedência.
type Body interface {
	encode() (io.Reader, string, error)
}

type textBody string

func (b textBody) encode() (io.Reader, string, error) {
	return strings.NewReader(string(b)), contentTypeText, nil
}

type bytesBody []byte

func (b bytesBody) encode() (io.Reader, string, error) {
	return bytes.NewReader(b), contentTypeBinary, nil
}

type streamBody struct {
	r io.Reader
}

func (b streamBody) encode() (io.Reader, string, error) {
	return b.r, contentTypeBinary, nil
}

type formBody map[string]string

func (b formBody) encode() (io.Reader, string, error) {
	values := make(url.Values, len(b))
	for k, v := range b {
		values.Set(k, v)
	}
	return strings.NewReader(values.Encode()), contentTypeForm, nil
}

// File é um campo de arquivo em Multipart.
type File struct {
	Name    string
	Content io.Reader
}

type multipartBody map[string]any

func (b multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writePart(w, k, b[k]); err != nil {
			return nil, "", errors.Wrapf(err, "multipart field %q", k)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, name string, value any) error {
	switch v := value.(type) {
	case string:
		return w.WriteField(name, v)
	case []byte:
		part, err := w.CreateFormField(name)
		if err != nil {
			return err
		}
		_, err = part.Write(v)
		return err
	case File:
		part, err := w.CreateFormFile(name, v.Name)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, v.Content)
		return err
	case io.Reader:
		part, err := w.CreateFormFile(name, name)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, v)
		return err
	default:
		return w.WriteField(name, fmt.Sprint(v))
	}
}

// Text envia s como text/plain.
func Text(s string) Body { return textBody(s) }

// Bytes envia b como application/octet-stream.
func Bytes(b []byte) Body { return bytesBody(b) }

// Stream envia o conteúdo de r sem bufferizar (chunked).
func Stream(r io.Reader) Body { return streamBody{r: r} }

// Form envia os campos url-encoded.
func Form(fields map[string]string) Body { return formBody(fields) }

// Multipart envia multipart/form-data. Valores aceitos: string, []byte, File,
// io.Reader (vira arquivo com o nome do campo); demais tipos via fmt.Sprint.
func Multipart(fields map[string]any) Body { return multipartBody(fields) }
