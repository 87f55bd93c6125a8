// Package origin valida a origem declarada de requests que alteram estado (CSRF).
//
// A comparação é sempre por igualdade exata de origem (scheme + host + porta),
// nunca por substring, prefixo ou sufixo.
package origin

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrMalformedReferer é retornado quando não há Origin e o Referer não é uma URL válida.
var ErrMalformedReferer = errors.New("malformed referer")

// Env relaxa a validação fora de produção. Vem da configuração, nunca do ambiente
// do processo, para a decisão continuar pura.
type Env struct {
	Development bool
	Test        bool
}

func (e Env) relaxed() bool { return e.Development || e.Test }

// Origin é a tripla normalizada: scheme e host em minúsculas, porta padrão removida.
type Origin struct {
	Scheme string
	Host   string
	Port   string
}

func (o Origin) String() string {
	host := o.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if o.Port != "" {
		return o.Scheme + "://" + host + ":" + o.Port
	}
	return o.Scheme + "://" + host
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Parse lê uma origem serializada (como no header Origin). Aceita no máximo uma
// barra final; path, query, fragment ou userinfo tornam a origem inválida.
func Parse(s string) (Origin, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Origin{}, err
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" || (u.Path != "" && u.Path != "/") {
		return Origin{}, fmt.Errorf("not an origin: %q", s)
	}
	return fromURL(u)
}

// FromReferer extrai a origem de uma URL completa.
func FromReferer(s string) (Origin, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Origin{}, fmt.Errorf("%w: %w", ErrMalformedReferer, err)
	}
	o, err := fromURL(u)
	if err != nil {
		return Origin{}, fmt.Errorf("%w: %w", ErrMalformedReferer, err)
	}
	return o, nil
}

func fromURL(u *url.URL) (Origin, error) {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if scheme == "" || host == "" || u.Opaque != "" {
		return Origin{}, fmt.Errorf("missing scheme or host in %q", u.String())
	}
	port := u.Port()
	if port == defaultPorts[scheme] {
		port = ""
	}
	return Origin{Scheme: scheme, Host: host, Port: port}, nil
}

// loopback são os hosts aceitos em desenvolvimento/teste.
var loopback = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

func (o Origin) isLoopback() bool {
	return (o.Scheme == "http" || o.Scheme == "https") && loopback[o.Host]
}

// RequestOrigin prefere o header Origin; sem ele, deriva do Referer.
// ok=false quando os dois estão ausentes. Referer malformado vira erro.
func RequestOrigin(r *http.Request) (origin string, ok bool, err error) {
	if v := r.Header.Get("Origin"); v != "" {
		return v, true, nil
	}
	ref := r.Header.Get("Referer")
	if ref == "" {
		return "", false, nil
	}
	o, err := FromReferer(ref)
	if err != nil {
		return "", false, err
	}
	return o.String(), true, nil
}

// Validate decide se a origem da request é aceitável.
//
// Ordem: sem origem só passa em dev/teste; igualdade exata com expected passa;
// em dev/teste, loopback exato passa; o resto é rejeitado. O header Origin,
// quando presente, tem precedência mesmo que o Referer fosse válido.
func Validate(r *http.Request, expected string, env Env) (bool, error) {
	raw, ok, err := RequestOrigin(r)
	if err != nil {
		return false, err
	}
	if !ok {
		return env.relaxed(), nil
	}

	got, err := Parse(raw)
	if err != nil {
		// Origin ilegível ("null", lixo) nunca bate com nada.
		return false, nil
	}

	if expected != "" {
		want, err := Parse(expected)
		if err == nil && got == want {
			return true, nil
		}
	}

	if env.relaxed() && got.isLoopback() {
		return true, nil
	}
	return false, nil
}
