package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yeti47/snapwatch/common"
	"github.com/yeti47/snapwatch/config"
	"github.com/yeti47/snapwatch/logging"
)

const (
	AuthEndpoint   = "obtain-auth-token"
	UploadEndpoint = "api/images"

	// ImageField is the multipart field that carries the image file
	ImageField = "image"
)

// ImageStoreClient handles communication with the remote image store
type ImageStoreClient interface {
	// Authenticate obtains a token for the configured user
	Authenticate(ctx context.Context) error
	// Upload sends the file at filePath, authenticating first if no token is held
	Upload(ctx context.Context, filePath string) error
}

// ClientSettings are the explicit connection settings. Empty values fall back to
// the IMAGE_STORE_* environment variables.
type ClientSettings struct {
	Host     string
	Username string
	Password string
	Timeout  time.Duration // 0 means no timeout
}

// HTTPImageStoreClient implements ImageStoreClient using token authentication.
// The token is obtained on first use and kept for the life of the client; it is never
// refreshed, even when a later request is rejected.
// It is not safe for concurrent use.
type HTTPImageStoreClient struct {
	host       string
	username   string
	password   string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

// NewHTTPImageStoreClient creates a client without doing any network I/O.
// Missing settings are not an error here; requests made without a host will fail.
func NewHTTPImageStoreClient(settings ClientSettings, logger logging.Logger) *HTTPImageStoreClient {
	host := config.Resolve(config.Explicit(settings.Host), config.Env(config.EnvImageStoreHost))

	return &HTTPImageStoreClient{
		host:     strings.TrimRight(host, "/"),
		username: config.Resolve(config.Explicit(settings.Username), config.Env(config.EnvImageStoreUsername)),
		password: config.Resolve(config.Explicit(settings.Password), config.Env(config.EnvImageStorePassword)),
		httpClient: &http.Client{
			Timeout: settings.Timeout,
		},
		logger: logging.OrNop(logger),
	}
}

// NormaliseEndpoint reduces an endpoint to its non-empty path segments wrapped in single slashes,
// so "//api//images/" becomes "/api/images/".
func NormaliseEndpoint(endpoint string) string {
	var crumbs []string
	for _, crumb := range strings.Split(endpoint, "/") {
		if crumb != "" {
			crumbs = append(crumbs, crumb)
		}
	}
	if len(crumbs) == 0 {
		return "/"
	}
	return "/" + strings.Join(crumbs, "/") + "/"
}

// HasCredential reports whether a token is held
func (c *HTTPImageStoreClient) HasCredential() bool {
	return c.token != ""
}

func (c *HTTPImageStoreClient) Host() string {
	return c.host
}

// headers returns the headers shared by every request
func (c *HTTPImageStoreClient) headers() http.Header {
	header := make(http.Header)
	if c.token != "" {
		header.Set("Authorization", "Token "+c.token)
	}
	return header
}

// formData is a pre-encoded request body for non-JSON posts
type formData struct {
	body        io.Reader
	length      int64
	contentType string
}

// post sends data to the endpoint. With isJSON the data is JSON encoded,
// otherwise it must be a *formData whose body is sent as is.
func (c *HTTPImageStoreClient) post(ctx context.Context, endpoint string, data any, isJSON bool) (*http.Response, error) {
	url := c.host + NormaliseEndpoint(endpoint)
	header := c.headers()

	var body io.Reader
	if isJSON {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		header.Set("Content-Type", "application/json")
		body = bytes.NewReader(encoded)
	} else {
		form, ok := data.(*formData)
		if !ok {
			return nil, fmt.Errorf("unsupported form body %T", data)
		}
		header.Set("Content-Type", form.contentType)
		body = form.body
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header
	if form, ok := data.(*formData); ok && !isJSON {
		req.ContentLength = form.length
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// Authenticate logs in and stores the returned token. Only 200 OK is accepted.
func (c *HTTPImageStoreClient) Authenticate(ctx context.Context) error {
	resp, err := c.post(ctx, AuthEndpoint, LoginRequest{
		Username: c.username,
		Password: c.password,
	}, true)
	if err != nil {
		return NewAuthenticationError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return NewAuthenticationError(resp.StatusCode, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body)))
	}

	var login LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return NewAuthenticationError(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	if login.Token == "" {
		return NewAuthenticationError(resp.StatusCode, fmt.Errorf("response contains no token"))
	}

	c.token = login.Token
	c.logger.Info("Authenticated with image store", "host", c.host, "username", c.username)
	return nil
}

// Upload streams the file as the "image" field of a multipart form. A failed
// authentication is returned unchanged and leaves the client without a token.
func (c *HTTPImageStoreClient) Upload(ctx context.Context, filePath string) error {
	if c.token == "" {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
	}

	file, err := os.Open(filePath)
	if err != nil {
		return NewUploadError(filePath, 0, fmt.Errorf("failed to open file: %w", err))
	}
	defer file.Close()

	form, err := newImageForm(file)
	if err != nil {
		return NewUploadError(filePath, 0, err)
	}

	c.logger.Info("Uploading image", "path", filePath, "bytes", form.length)

	resp, err := c.post(ctx, UploadEndpoint, form, false)
	if err != nil {
		return NewUploadError(filePath, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return NewUploadError(filePath, resp.StatusCode, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body)))
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// newImageForm frames file as the single "image" part of a multipart form.
// The envelope is built up front so the request carries a Content-Length
// while the file itself is still streamed from disk.
func newImageForm(file *os.File) (*formData, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var head bytes.Buffer
	writer := multipart.NewWriter(&head)

	fileName := filepath.Base(file.Name())
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		ImageField, quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", common.ImageMimeType(fileName))

	if _, err := writer.CreatePart(h); err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	// head now holds the part header; reuse it for the closing boundary
	prefix := bytes.Clone(head.Bytes())
	head.Reset()
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	return &formData{
		body:        io.MultiReader(bytes.NewReader(prefix), io.LimitReader(file, info.Size()), &head),
		length:      int64(len(prefix)) + info.Size() + int64(head.Len()),
		contentType: writer.FormDataContentType(),
	}, nil
}
