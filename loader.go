package pdfprint

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-pdfprint/internal/fileutil"
)

// MaxSourceSize caps the bytes read from a locator (256MB).
var MaxSourceSize int64 = 256 << 20

// defaultFetchTimeout bounds HTTP fetches when the caller's context has none.
const defaultFetchTimeout = 60 * time.Second

// Compile-time interface implementation check.
var _ SourceLoader = (*LocatorLoader)(nil)

// LocatorLoader loads documents from local paths, file:// URLs, data: URLs
// and HTTP(S) URLs.
type LocatorLoader struct {
	Client *http.Client // nil = client with defaultFetchTimeout
}

// Load returns the bytes behind locator.
func (l *LocatorLoader) Load(ctx context.Context, locator string) ([]byte, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, ErrEmptySource
	}
	if isDataURL(locator) {
		return decodeDataURL(locator)
	}
	if fileutil.IsURL(locator) {
		return l.fetch(ctx, locator)
	}

	path := locator
	if strings.HasPrefix(locator, "file://") {
		p, err := fileutil.PathFromFileURL(locator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceLoad, err)
		}
		path = p
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is the document the caller asked to print
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceLoad, err)
	}
	return data, nil
}

func (l *LocatorLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceLoad, err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrSourceLoad, rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrSourceLoad, err)
	}
	if int64(len(data)) > MaxSourceSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrSourceLoad, rawURL, MaxSourceSize)
	}
	return data, nil
}

func isDataURL(locator string) bool {
	return len(locator) >= 5 && strings.EqualFold(locator[:5], "data:")
}

// decodeDataURL returns the payload of a data:[<mediatype>][;base64],<data>
// URL. Payloads without ;base64 are percent-encoded.
func decodeDataURL(locator string) ([]byte, error) {
	header, payload, ok := strings.Cut(locator[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URL has no payload", ErrSourceLoad)
	}

	var data []byte
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimRight(payload, "=") + padding(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: data URL: %v", ErrSourceLoad, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: data URL: %v", ErrSourceLoad, err)
		}
		data = []byte(unescaped)
	}

	if int64(len(data)) > MaxSourceSize {
		return nil, fmt.Errorf("%w: data URL exceeds %d bytes", ErrSourceLoad, MaxSourceSize)
	}
	return data, nil
}

// padding restores the "=" padding some encoders leave off.
func padding(payload string) string {
	n := len(strings.TrimRight(payload, "=")) % 4
	if n == 0 {
		return ""
	}
	return strings.Repeat("=", 4-n)
}
