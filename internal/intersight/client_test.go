package intersight

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/model"
)

func writeTestKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}

	path := filepath.Join(t.TempDir(), "SecretKey.txt")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	return path, key
}

func newTestClient(t *testing.T, serverURL, keyFile string) *Client {
	t.Helper()

	client, err := New(&config.IntersightOptions{
		BaseURL: serverURL,
		KeyID:   "test-key-id",
		KeyFile: keyFile,
	}, nil)
	require.NoError(t, err)

	client.http.Logger = nil

	return client
}

func TestNewMissingKeyFile(t *testing.T) {
	_, err := New(&config.IntersightOptions{
		BaseURL: "https://intersight.com",
		KeyID:   "test-key-id",
		KeyFile: filepath.Join(t.TempDir(), "does-not-exist"),
	}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func TestNewMissingKeyID(t *testing.T) {
	keyFile, _ := writeTestKey(t)

	_, err := New(&config.IntersightOptions{
		BaseURL: "https://intersight.com",
		KeyFile: keyFile,
	}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func TestListSignsAndFilters(t *testing.T) {
	keyFile, key := writeTestKey(t)

	var gotReq *http.Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Results": []map[string]string{{"Moid": "m-1", "Name": "default"}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, keyFile)

	results, err := client.List(context.Background(), model.TypeOrganization, "Name eq 'default'")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m-1", results[0].Moid)
	assert.Equal(t, "default", results[0].Name)

	require.NotNil(t, gotReq)
	assert.Equal(t, "/api/v1/organization/Organizations", gotReq.URL.Path)
	assert.Equal(t, "Name eq 'default'", gotReq.URL.Query().Get("$filter"))

	auth := gotReq.Header.Get("Authorization")
	assert.Contains(t, auth, `keyId="test-key-id"`)
	assert.Contains(t, auth, `algorithm="hs2019"`)
	assert.Contains(t, auth, `headers="(request-target) host date digest"`)
	assert.NotEmpty(t, gotReq.Header.Get("Date"))
	assert.True(t, strings.HasPrefix(gotReq.Header.Get("Digest"), "SHA-256="))

	// The signature must verify against the signing string the server can
	// reconstruct from the request.
	target := "get " + gotReq.URL.EscapedPath() + "?" + gotReq.URL.RawQuery
	signingString := strings.Join([]string{
		"(request-target): " + target,
		"host: " + gotReq.Host,
		"date: " + gotReq.Header.Get("Date"),
		"digest: " + gotReq.Header.Get("Digest"),
	}, "\n")

	sigB64 := ""

	for _, part := range strings.Split(auth, ",") {
		if strings.HasPrefix(part, `signature="`) {
			sigB64 = strings.TrimSuffix(strings.TrimPrefix(part, `signature="`), `"`)
		}
	}

	require.NotEmpty(t, sigB64)

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	require.NoError(t, err)

	hashed := sha256.Sum256([]byte(signingString))
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hashed[:], sig))
}

func TestCreateReturnsMo(t *testing.T) {
	keyFile, _ := writeTestKey(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "pool-a", payload["Name"])

		_ = json.NewEncoder(w).Encode(map[string]string{"Moid": "m-9", "Name": "pool-a"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, keyFile)

	mo, err := client.Create(context.Background(), model.TypeMacPool, map[string]any{"Name": "pool-a"})
	require.NoError(t, err)
	assert.Equal(t, "m-9", mo.Moid)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{}`, model.ErrNotFound},
		{"conflict", http.StatusConflict, `{}`, model.ErrAlreadyExists},
		{"duplicate name", http.StatusBadRequest, `{"message":"MacPool already exists"}`, model.ErrAlreadyExists},
		{"server error", http.StatusBadGateway, `{}`, model.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapStatus(tt.status, []byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestPatchTargetsMoid(t *testing.T) {
	keyFile, _ := writeTestKey(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/server/Profiles/m-7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"Moid": "m-7"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, keyFile)

	mo, err := client.Patch(context.Background(), model.TypeProfile, "m-7", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "m-7", mo.Moid)
}
