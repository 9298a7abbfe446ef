package uploader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/afero"

	"github.com/jsonhammer/jsonhammer/pkg/apperr"
	"github.com/jsonhammer/jsonhammer/pkg/observability"
)

const (
	DefaultGateway = "https://ipfs.infura.io:5001/"
	addPath        = "api/v0/add?pin=false"
	schemePrefix   = "ipfs://"
)

//go:generate mockgen -destination=mocks/mock_uploader.go -package=mocks github.com/jsonhammer/jsonhammer/pkg/uploader Uploader

// Uploader submits a local file and returns its content identifier.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

type Options struct {
	Gateway   string
	APIKey    string
	APISecret string

	// RetryMax is the number of retries after the first attempt.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Endpoint returns the add endpoint of an IPFS HTTP API gateway.
func Endpoint(gateway string) string {
	if gateway == "" {
		gateway = DefaultGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + addPath
}

// IPFS uploads files to the add endpoint of an IPFS HTTP API.
type IPFS struct {
	fs          afero.Fs
	endpoint    string
	retryClient *retryablehttp.Client
	logger      *observability.HammerLogger
}

func NewIPFS(fs afero.Fs, opts Options, logger *observability.HammerLogger) *IPFS {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = opts.RetryWaitMax
	}
	// hand the last response back so that its status can be reported
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = logger.Logger
	retryClient.HTTPClient.Transport = &authedTransport{
		key:     opts.APIKey,
		secret:  opts.APISecret,
		wrapped: retryClient.HTTPClient.Transport,
	}

	return &IPFS{
		fs:          fs,
		endpoint:    Endpoint(opts.Gateway),
		retryClient: retryClient,
		logger:      logger,
	}
}

type authedTransport struct {
	key     string
	secret  string
	wrapped http.RoundTripper
}

func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

func (t *authedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Basic "+basicAuth(t.key, t.secret))
	req.Header.Set("User-Agent", "jsonhammer")
	return t.wrapped.RoundTrip(req)
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func (u *IPFS) Upload(ctx context.Context, path string) (string, error) {
	display := filepath.ToSlash(path)

	data, err := afero.ReadFile(u.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound(display, "")
		}
		return "", apperr.Upload(display, 0, err)
	}

	body, contentType, err := multipartBody(filepath.Base(path), data)
	if err != nil {
		return "", apperr.Upload(display, 0, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return "", apperr.Upload(display, 0, err)
	}
	req.Header.Set("Content-Type", contentType)

	u.logger.Info("uploading to IPFS", "path", display)
	resp, err := u.retryClient.Do(req)
	if resp == nil {
		return "", apperr.Upload(display, 0, err)
	}
	defer func(Body io.ReadCloser) {
		_, _ = io.Copy(io.Discard, Body)
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Upload(display, resp.StatusCode, err)
	}

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", apperr.Upload(display, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if added.Hash == "" {
		return "", apperr.Upload(display, resp.StatusCode, fmt.Errorf("response carries no hash"))
	}

	cid := schemePrefix + added.Hash
	u.logger.Debug("uploaded to IPFS", "path", display, "cid", cid)
	return cid, nil
}

func multipartBody(name string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err = part.Write(data); err != nil {
		return nil, "", err
	}
	if err = writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
