package middleware

import (
	"context"
	"net/http"
	"strings"
)

// RequestOverride produces a clone of an in-flight request with selected
// headers and cookies replaced. The original request is never modified.
type RequestOverride struct {
	base    *http.Request
	headers map[string]string
	cookies []*http.Cookie
}

func NewRequestOverride(r *http.Request) *RequestOverride {
	return &RequestOverride{base: r, headers: map[string]string{}}
}

// OverrideHeader replaces every value of header name with value.
func (o *RequestOverride) OverrideHeader(name, value string) *RequestOverride {
	o.headers[http.CanonicalHeaderKey(name)] = value
	return o
}

// OverrideCookie replaces the cookie called name, or adds it when absent.
func (o *RequestOverride) OverrideCookie(name, value string) *RequestOverride {
	for _, c := range o.cookies {
		if c.Name == name {
			c.Value = value
			return o
		}
	}
	o.cookies = append(o.cookies, &http.Cookie{Name: name, Value: value})
	return o
}

// Request returns the patched clone bound to ctx.
func (o *RequestOverride) Request(ctx context.Context) *http.Request {
	r := o.base.Clone(ctx)
	for name, value := range o.headers {
		r.Header.Set(name, value)
	}
	if len(o.cookies) == 0 {
		return r
	}

	// Untouched pairs are copied byte for byte; re-encoding them through
	// http.Cookie would quote values the client sent bare.
	replaced := make(map[string]bool, len(o.cookies))
	parts := make([]string, 0, len(o.cookies))
	for _, line := range r.Header.Values("Cookie") {
		for _, pair := range strings.Split(line, ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			name, _, _ := strings.Cut(pair, "=")
			name = strings.TrimSpace(name)
			if v, ok := o.cookieValue(name); ok {
				if replaced[name] {
					continue
				}
				replaced[name] = true
				pair = name + "=" + v
			}
			parts = append(parts, pair)
		}
	}
	for _, c := range o.cookies {
		if !replaced[c.Name] {
			parts = append(parts, c.Name+"="+c.Value)
		}
	}
	r.Header.Set("Cookie", strings.Join(parts, "; "))
	return r
}

func (o *RequestOverride) cookieValue(name string) (string, bool) {
	for _, c := range o.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
