package upload

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngData  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	jpegData = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)
)

type fakeHost struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (h *fakeHost) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.fail[string(data[:4])] {
		return "", errors.New("connection reset")
	}
	return "https://ik.example/catalogue/" + name, nil
}

func TestUploadBatch_OversizedFileNeverReachesTransport(t *testing.T) {
	host := &fakeHost{}
	g := NewGateway(host, nil)

	results := g.UploadBatch(context.Background(), 0, []File{
		{Name: "huge.jpg", ContentType: "image/jpeg", Size: 15 << 20},
	})

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrTooLarge)
	assert.NotEmpty(t, results[0].Error)
	assert.Zero(t, host.calls)
}

func TestUploadBatch_PerFileResults(t *testing.T) {
	host := &fakeHost{fail: map[string]bool{string(jpegData[:4]): true}}
	g := NewGateway(host, nil)

	results := g.UploadBatch(context.Background(), 1, []File{
		{Name: "front.png", ContentType: "image/png", Data: pngData},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
		{Name: "fake.png", ContentType: "image/png", Data: []byte("definitely not a picture")},
		{Name: "back.jpg", ContentType: "image/jpeg", Data: jpegData},
		{Name: "side.png", ContentType: "image/png", Data: pngData},
	})

	require.Len(t, results, 5)
	names := []string{"front.png", "notes.txt", "fake.png", "back.jpg", "side.png"}
	for i, r := range results {
		assert.Equal(t, names[i], r.Name)
	}

	assert.NoError(t, results[0].Err)
	assert.True(t, strings.HasSuffix(results[0].URL, ".png"))
	assert.ErrorIs(t, results[1].Err, ErrNotImage)
	assert.ErrorIs(t, results[2].Err, ErrNotImage)
	assert.EqualError(t, results[3].Err, "connection reset")
	assert.NoError(t, results[4].Err)

	assert.Equal(t, 3, host.calls)
	assert.Len(t, URLs(results), 2)
}

func TestUploadBatch_ImageLimitCountsExisting(t *testing.T) {
	host := &fakeHost{}
	g := NewGateway(host, nil)

	files := []File{
		{Name: "1.png", ContentType: "image/png", Data: pngData},
		{Name: "2.png", ContentType: "image/png", Data: pngData},
		{Name: "3.png", ContentType: "image/png", Data: pngData},
	}
	results := g.UploadBatch(context.Background(), 3, files)

	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, ErrTooManyImages)
	assert.Equal(t, 2, host.calls)

	full := g.UploadBatch(context.Background(), 5, files[:1])
	assert.ErrorIs(t, full[0].Err, ErrTooManyImages)
}

func TestUploadBatch_NoHost(t *testing.T) {
	g := NewGateway(nil, nil)
	assert.False(t, g.Configured())

	results := g.UploadBatch(context.Background(), 0, []File{
		{Name: "a.png", ContentType: "image/png", Data: pngData},
		{Name: "b.txt", ContentType: "text/plain", Data: []byte("x")},
	})
	assert.ErrorIs(t, results[0].Err, ErrNotConfigured)
	assert.ErrorIs(t, results[1].Err, ErrNotImage)
}

func TestImageKitHost_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "private_key" || pass != "" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Your account cannot be authenticated."})
			return
		}
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "/catalogue", r.FormValue("folder"))
		assert.Equal(t, "true", r.FormValue("useUniqueFileName"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.True(t, bytes.Equal(pngData, data))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"fileId": "abc",
			"name":   hdr.Filename,
			"url":    "https://ik.imagekit.io/demo/catalogue/" + hdr.Filename,
		})
	}))
	defer srv.Close()

	host := NewImageKitHost(ImageKitConfig{PrivateKey: "private_key", UploadURL: srv.URL})
	url, err := host.Upload(context.Background(), "x.png", "image/png", pngData)
	require.NoError(t, err)
	assert.Equal(t, "https://ik.imagekit.io/demo/catalogue/x.png", url)

	bad := NewImageKitHost(ImageKitConfig{PrivateKey: "wrong", UploadURL: srv.URL})
	_, err = bad.Upload(context.Background(), "x.png", "image/png", pngData)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be authenticated")

	_, err = NewImageKitHost(ImageKitConfig{}).Upload(context.Background(), "x.png", "image/png", pngData)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSignUploadParams(t *testing.T) {
	now := time.Unix(1700000000, 0)
	params, err := SignUploadParams(ImageKitConfig{PrivateKey: "private_key", PublicKey: "public_key"}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, params.Token)
	assert.Equal(t, now.Add(10*time.Minute).Unix(), params.Expire)
	assert.Equal(t, "public_key", params.PublicKey)

	mac := hmac.New(sha1.New, []byte("private_key"))
	mac.Write([]byte(params.Token + strconv.FormatInt(params.Expire, 10)))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), params.Signature)

	_, err = SignUploadParams(ImageKitConfig{}, now)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
