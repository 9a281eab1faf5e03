package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func is a built-in function callable from a template placeholder.
type Func func(args []string) any

// Registry maps function names to implementations.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{funcs: map[string]Func{}}
	r.funcs["uuid"] = func([]string) any { return uuid.NewString() }
	r.funcs["now"] = func([]string) any { return time.Now().UTC().Format(time.RFC3339) }
	r.funcs["timestamp"] = func([]string) any { return time.Now().Unix() }
	r.funcs["timestampMs"] = func([]string) any { return time.Now().UnixMilli() }
	r.funcs["random"] = fnRandom
	r.funcs["randomString"] = fnRandomString
	r.funcs["base64"] = fnBase64
	r.funcs["base64Decode"] = fnBase64Decode
	r.funcs["sha256"] = fnSHA256
	r.funcs["urlEncode"] = fnURLEncode
	r.funcs["urlDecode"] = fnURLDecode
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

var callPattern = regexp.MustCompile(`^([A-Za-z0-9_]+)\((.*)\)$`)

// Call evaluates a function-call expression like uuid() or random(1, 10).
// The second return is false when the expression is not a call or the
// function is unknown.
func (r *Registry) Call(expr string) (any, bool) {
	m := callPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, false
	}
	fn, ok := r.funcs[m[1]]
	if !ok {
		return nil, false
	}
	return fn(splitArgs(m[2])), true
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteByte(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args
}

func fnRandom(args []string) any {
	min, max := 0, 100
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			min = v
		}
		if v, err := strconv.Atoi(args[1]); err == nil {
			max = v
		}
	}
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func fnRandomString(args []string) any {
	length := 16
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			length = v
		}
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b)
}

func fnBase64(args []string) any {
	if len(args) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0]))
}

func fnBase64Decode(args []string) any {
	if len(args) == 0 {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return ""
	}
	return string(decoded)
}

func fnSHA256(args []string) any {
	if len(args) == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(args[0]))
	return hex.EncodeToString(sum[:])
}

func fnURLEncode(args []string) any {
	if len(args) == 0 {
		return ""
	}
	return url.QueryEscape(args[0])
}

func fnURLDecode(args []string) any {
	if len(args) == 0 {
		return ""
	}
	decoded, err := url.QueryUnescape(args[0])
	if err != nil {
		return args[0]
	}
	return decoded
}
