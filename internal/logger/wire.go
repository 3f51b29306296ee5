package logger

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

var (
	wireMu       sync.Mutex
	wireLog      *log.Logger
	wireDumpBody bool
)

// redactedHeaders never reach the wire dump in clear text.
var redactedHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
}

func SetWireWriter(w io.Writer) {
	wireMu.Lock()
	defer wireMu.Unlock()
	if w == nil {
		wireLog = nil
		return
	}
	wireLog = log.New(w, "", log.LstdFlags)
}

func EnableWireBodyDump(enabled bool) {
	wireMu.Lock()
	wireDumpBody = enabled
	wireMu.Unlock()
}

type wireSection struct {
	Title string
	Body  string
}

func logWire(kind, method, target string, sections []wireSection) {
	wireMu.Lock()
	l := wireLog
	wireMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[HTTP]")
	for _, tag := range []string{kind, method, target} {
		if tag == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogWireRequest dumps an outgoing request. Credentials in headers and
// form bodies are masked.
func LogWireRequest(method, target string, header http.Header, body []byte) {
	sections := []wireSection{{Title: "HEADERS", Body: formatHeaders(header)}}
	if wireBodyEnabled() && len(body) > 0 {
		sections = append(sections, wireSection{Title: "BODY", Body: redactForm(string(body))})
	}
	logWire("request", method, target, sections)
}

func LogWireResponse(method, target string, status int, body []byte) {
	sections := []wireSection{{Title: "STATUS", Body: fmt.Sprintf("%d", status)}}
	if wireBodyEnabled() && len(body) > 0 {
		sections = append(sections, wireSection{Title: "BODY", Body: redactTokens(string(body))})
	}
	logWire("response", method, target, sections)
}

func wireBodyEnabled() bool {
	wireMu.Lock()
	defer wireMu.Unlock()
	return wireDumpBody
}

func formatHeaders(h http.Header) string {
	if len(h) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for k, vals := range h {
		value := strings.Join(vals, ", ")
		if redactedHeaders[strings.ToLower(k)] {
			value = "***"
		}
		fmt.Fprintf(&b, "%s: %s\n", k, value)
	}
	return b.String()
}

var secretKeys = []string{"access_token", "refresh_token", "code", "client_secret", "id_token"}

func redactForm(body string) string {
	if !strings.Contains(body, "=") || strings.HasPrefix(strings.TrimSpace(body), "{") {
		return redactTokens(body)
	}
	parts := strings.Split(body, "&")
	for i, p := range parts {
		key, _, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		for _, s := range secretKeys {
			if key == s {
				parts[i] = key + "=***"
			}
		}
	}
	return strings.Join(parts, "&")
}

// redactTokens masks secret string values in a JSON body, at any depth.
// Bodies that are not JSON are returned unchanged.
func redactTokens(body string) string {
	if !gjson.Valid(body) {
		return body
	}
	var secrets []string
	var walk func(node gjson.Result)
	walk = func(node gjson.Result) {
		node.ForEach(func(key, val gjson.Result) bool {
			switch {
			case val.IsObject() || val.IsArray():
				walk(val)
			case val.Type == gjson.String && val.Str != "" && isSecretKey(key.Str):
				secrets = append(secrets, val.Raw)
			}
			return true
		})
	}
	walk(gjson.Parse(body))
	for _, raw := range secrets {
		body = maskValue(body, raw)
	}
	return body
}

func isSecretKey(key string) bool {
	for _, s := range secretKeys {
		if key == s {
			return true
		}
	}
	return false
}

// maskValue replaces every occurrence of the quoted literal raw that sits in
// value position, i.e. right after a colon.
func maskValue(body, raw string) string {
	var b strings.Builder
	rest := body
	for {
		idx := strings.Index(rest, raw)
		if idx < 0 {
			b.WriteString(rest)
			return b.String()
		}
		head := rest[:idx]
		b.WriteString(head)
		if strings.HasSuffix(strings.TrimRight(head, " \t\r\n"), ":") {
			b.WriteString(`"***"`)
		} else {
			b.WriteString(raw)
		}
		rest = rest[idx+len(raw):]
	}
}
