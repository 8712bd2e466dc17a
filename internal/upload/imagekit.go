package upload

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	defaultImageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	defaultFolder            = "/catalogue"
	signatureTTL             = 10 * time.Minute
)

type ImageKitConfig struct {
	PrivateKey  string
	PublicKey   string
	URLEndpoint string
	UploadURL   string
	Folder      string
	Timeout     time.Duration
}

// Configured reports whether server-side uploads are possible.
func (c ImageKitConfig) Configured() bool {
	return c.PrivateKey != ""
}

// ImageKitHost uploads through ImageKit's server API, authenticated with
// the private key.
type ImageKitHost struct {
	cfg    ImageKitConfig
	client *http.Client
}

func NewImageKitHost(cfg ImageKitConfig) *ImageKitHost {
	if cfg.UploadURL == "" {
		cfg.UploadURL = defaultImageKitUploadURL
	}
	if cfg.Folder == "" {
		cfg.Folder = defaultFolder
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ImageKitHost{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type imageKitResponse struct {
	FileID  string `json:"fileId"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (h *ImageKitHost) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if !h.cfg.Configured() {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	for k, v := range map[string]string{
		"fileName":          name,
		"folder":            h.cfg.Folder,
		"useUniqueFileName": "true",
	} {
		if err := w.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.UploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetBasicAuth(h.cfg.PrivateKey, "")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	var out imageKitResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Message != "" {
			return "", fmt.Errorf("upload rejected: %d: %s", resp.StatusCode, out.Message)
		}
		return "", fmt.Errorf("upload rejected: %d", resp.StatusCode)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload response without url")
	}
	return out.URL, nil
}

// AuthParams lets a browser upload straight to ImageKit.
type AuthParams struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"publicKey,omitempty"`
	URLEndpoint string `json:"urlEndpoint,omitempty"`
}

// SignUploadParams issues client upload credentials valid for ten
// minutes: signature = hex(HMAC-SHA1(privateKey, token + expire)).
func SignUploadParams(cfg ImageKitConfig, now time.Time) (AuthParams, error) {
	if !cfg.Configured() {
		return AuthParams{}, ErrNotConfigured
	}
	token := uuid.NewString()
	expire := now.Add(signatureTTL).Unix()
	return AuthParams{
		Token:       token,
		Expire:      expire,
		Signature:   sign(cfg.PrivateKey, token, expire),
		PublicKey:   cfg.PublicKey,
		URLEndpoint: cfg.URLEndpoint,
	}, nil
}

func sign(privateKey, token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
