package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize caps client-submitted files at 4MB.
const MaxUploadSize = 4 << 20

var (
	ErrTooLarge    = errors.New("file exceeds the 4MB limit")
	ErrBadMIMEType = errors.New("file type not allowed")
)

var allowedMIME = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// Read validates the upload and returns its bytes plus the sniffed MIME
// type. The MIME check uses content sniffing, not the client-supplied
// header. Nothing is stored on rejection.
func Read(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > MaxUploadSize {
		return nil, "", ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, "", ErrTooLarge
	}

	mimeType := http.DetectContentType(data)
	// DetectContentType appends parameters for some types.
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if _, ok := allowedMIME[mimeType]; !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrBadMIMEType, mimeType)
	}
	return data, mimeType, nil
}

// SaveLocal writes the file under the public uploads dir and returns the
// stored relative path.
func SaveLocal(dir string, data []byte, mimeType string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	name := uuid.NewString() + allowedMIME[mimeType]
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return path, nil
}

// DataURL inlines the file as a base64 data URL, the degraded fallback
// when the image host is unavailable.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// HostClient posts images to the third-party image host.
type HostClient struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

func NewHostClient(apiKey string) *HostClient {
	return &HostClient{
		apiKey:   apiKey,
		endpoint: "https://api.imgbb.com/1/upload",
		http:     &http.Client{Timeout: 20 * time.Second},
	}
}

// NewHostClientWithEndpoint is used by tests to target a local server.
func NewHostClientWithEndpoint(apiKey, endpoint string) *HostClient {
	return &HostClient{apiKey: apiKey, endpoint: endpoint, http: &http.Client{Timeout: 20 * time.Second}}
}

func (h *HostClient) Configured() bool {
	return h.apiKey != ""
}

// Upload sends the image and returns the hosted URL.
func (h *HostClient) Upload(ctx context.Context, data []byte) (string, error) {
	if !h.Configured() {
		return "", fmt.Errorf("image host not configured")
	}

	form := url.Values{}
	form.Set("key", h.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling image host: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("image host returned %d: %s", resp.StatusCode, string(text))
	}

	var out struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding image host response: %w", err)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("image host returned no url")
	}
	return out.Data.URL, nil
}
