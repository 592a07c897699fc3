// Package session loads and stores the browser cookies that authenticate pricing requests.
package session

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
)

// ErrCredentials is returned when the cookie bundle is missing, unreadable or empty.
var ErrCredentials = errors.New("session credentials are missing or unreadable")

// Format is the on-disk encoding of a bundle.
type Format string

const (
	FormatJSON Format = "json"
	FormatGob  Format = "gob"
)

// Bundle maps cookie names to values. It is treated as opaque and immutable.
type Bundle map[string]string

// cookieObject is one element of the array form exported by browsers and devtools.
type cookieObject struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Load reads a bundle written as a JSON name/value object, a JSON array of
// cookie objects, or a gob encoded map.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
	}

	bundle, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCredentials, path, err)
	}
	if len(bundle) == 0 {
		return nil, fmt.Errorf("%w: %s holds no cookies", ErrCredentials, path)
	}

	return bundle, nil
}

func decode(data []byte) (Bundle, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("file is empty")
	}

	var bundle Bundle
	if err := json.Unmarshal(trimmed, &bundle); err == nil {
		return bundle, nil
	}

	var list []cookieObject
	if err := json.Unmarshal(trimmed, &list); err == nil {
		bundle = make(Bundle, len(list))
		for _, c := range list {
			if c.Name == "" {
				continue
			}
			bundle[c.Name] = c.Value
		}
		return bundle, nil
	}

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("not a JSON or gob cookie bundle: %w", err)
	}

	return bundle, nil
}

// Save writes the bundle in the given format, creating parent directories.
func Save(path string, bundle Bundle, format Format) error {
	var buf bytes.Buffer

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		if err := enc.Encode(bundle); err != nil {
			return fmt.Errorf("failed to encode cookies: %w", err)
		}
	case FormatGob:
		if err := gob.NewEncoder(&buf).Encode(bundle); err != nil {
			return fmt.Errorf("failed to encode cookies: %w", err)
		}
	default:
		return fmt.Errorf("unsupported bundle format: %s", format)
	}

	const dirPerm, filePerm = 0o755, 0o600
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create bundle directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), filePerm); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	return nil
}

// Cookies returns the bundle as request cookies, ordered by name.
func (b Bundle) Cookies() []*http.Cookie {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: b[name]})
	}

	return cookies
}
