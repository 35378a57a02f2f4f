package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

// testCertificate генерирует self-signed сертификат и ключ (PEM).
func testCertificate(t *testing.T) (certPEM []byte, key *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "poncho-chat-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), key
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestNewTLSConfig_VerifyIsNegationOfInsecure(t *testing.T) {
	assert.True(t, NewTLSConfig(false, "", "", "").Verify)
	assert.False(t, NewTLSConfig(true, "", "", "").Verify)
}

func TestTLSConfig_HasClientCertificate(t *testing.T) {
	tests := []struct {
		name            string
		cert, key, pass string
		want            bool
	}{
		{name: "nothing", want: false},
		{name: "cert only", cert: "c.pem", want: true},
		{name: "key only", key: "k.pem", want: true},
		{name: "passphrase only", pass: "secret", want: true},
		{name: "all", cert: "c.pem", key: "k.pem", pass: "secret", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTLSConfig(false, tt.cert, tt.key, tt.pass)
			assert.Equal(t, tt.want, cfg.HasClientCertificate())

			tlsCfg := tlsClientConfig(cfg)
			assert.Equal(t, tt.want, tlsCfg.GetClientCertificate != nil)
		})
	}
}

// TestNewHTTPClient_NoIO — несуществующие пути не валидируются при сборке клиента.
func TestNewHTTPClient_NoIO(t *testing.T) {
	client := NewHTTPClient(Options{
		Timeout: 5 * time.Second,
		TLS:     NewTLSConfig(false, "/does/not/exist.pem", "/does/not/exist.key", "pw"),
	})
	require.NotNil(t, client)
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestNewHTTPClient_ServerVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Run("verify rejects unknown authority", func(t *testing.T) {
		client := NewHTTPClient(Options{Timeout: 5 * time.Second, TLS: NewTLSConfig(false, "", "", "")})
		_, err := client.Get(srv.URL)
		require.Error(t, err)
	})

	t.Run("insecure skips verification", func(t *testing.T) {
		client := NewHTTPClient(Options{Timeout: 5 * time.Second, TLS: NewTLSConfig(true, "", "", "")})
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("tracing transport still works", func(t *testing.T) {
		client := NewHTTPClient(Options{Timeout: 5 * time.Second, TLS: NewTLSConfig(true, "", "", ""), Tracing: true})
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestNewHTTPClient_ClientCertificate(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(r.TLS.PeerCertificates[0].Subject.CommonName))
	}))
	srv.TLS = &tls.Config{ClientAuth: tls.RequireAnyClientCert}
	srv.StartTLS()
	defer srv.Close()

	certPEM, key := testCertificate(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	t.Run("presents certificate", func(t *testing.T) {
		certPath := writeTemp(t, "client.pem", certPEM)
		keyPath := writeTemp(t, "client.key", keyPEM)

		client := NewHTTPClient(Options{Timeout: 5 * time.Second, TLS: NewTLSConfig(true, certPath, keyPath, "")})
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing file surfaces at request time", func(t *testing.T) {
		client := NewHTTPClient(Options{Timeout: 5 * time.Second, TLS: NewTLSConfig(true, "/does/not/exist.pem", "", "")})
		_, err := client.Get(srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client certificate")
	})

	t.Run("no certificate is rejected by server", func(t *testing.T) {
		client := NewHTTPClient(Options{Timeout: 5 * time.Second, TLS: NewTLSConfig(true, "", "", "")})
		resp, err := client.Get(srv.URL)
		if err == nil {
			resp.Body.Close()
		}
		assert.Error(t, err)
	})
}

func TestLoadClientCertificate(t *testing.T) {
	certPEM, key := testCertificate(t)

	t.Run("combined pem without key path", func(t *testing.T) {
		der, err := x509.MarshalECPrivateKey(key)
		require.NoError(t, err)
		combined := append(append([]byte{}, certPEM...), pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})...)
		path := writeTemp(t, "combined.pem", combined)

		cert, err := LoadClientCertificate(path, "", "")
		require.NoError(t, err)
		assert.Len(t, cert.Certificate, 1)
	})

	t.Run("pkcs8 encrypted key", func(t *testing.T) {
		der, err := pkcs8.MarshalPrivateKey(key, []byte("s3cret"), nil)
		require.NoError(t, err)
		certPath := writeTemp(t, "client.pem", certPEM)
		keyPath := writeTemp(t, "client.key", pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der}))

		_, err = LoadClientCertificate(certPath, keyPath, "s3cret")
		require.NoError(t, err)

		_, err = LoadClientCertificate(certPath, keyPath, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no passphrase")

		_, err = LoadClientCertificate(certPath, keyPath, "wrong")
		require.Error(t, err)
	})

	t.Run("legacy pem encrypted key", func(t *testing.T) {
		der, err := x509.MarshalECPrivateKey(key)
		require.NoError(t, err)
		block, err := x509.EncryptPEMBlock(rand.Reader, "EC PRIVATE KEY", der, []byte("s3cret"), x509.PEMCipherAES256) //nolint:staticcheck
		require.NoError(t, err)
		certPath := writeTemp(t, "client.pem", certPEM)
		keyPath := writeTemp(t, "client.key", pem.EncodeToMemory(block))

		_, err = LoadClientCertificate(certPath, keyPath, "s3cret")
		require.NoError(t, err)
	})

	t.Run("empty cert path", func(t *testing.T) {
		_, err := LoadClientCertificate("", "key.pem", "")
		require.Error(t, err)
	})
}
