package cert

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
)

// LoadBytes resolves a signature or font reference to raw bytes. Supported
// forms are inline base64 data URIs and HTTP(S) URLs. Any failure (bad
// encoding, transport error, non-2xx response) yields nil so rendering can
// fall back without surfacing asset errors.
func LoadBytes(ctx context.Context, ref string) []byte {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "data:") {
		parts := strings.SplitN(ref, ",", 2)
		if len(parts) < 2 {
			return nil
		}
		data, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return nil
		}
		return data
	}
	if strings.HasPrefix(ref, "http") {
		return fetchBytes(ctx, ref)
	}
	return nil
}

func fetchBytes(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return body
}
