// Package transport собирает HTTP клиент для запросов к completion endpoint.
//
// Здесь не выполняется ни сетевой, ни файловый I/O: клиентский сертификат
// читается лениво во время TLS handshake, поэтому неверный путь или пароль
// проявляются как ошибка соединения при первом запросе.
package transport

import (
	"crypto/tls"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TLSConfig — параметры TLS, построенные из ввода вызывающей стороны.
type TLSConfig struct {
	// Verify — проверять сертификат сервера (отрицание флага tls_insecure).
	Verify bool

	ClientCert       string
	ClientKey        string
	ClientPassphrase string
}

// NewTLSConfig строит TLSConfig из флага insecure и путей к сертификату.
func NewTLSConfig(insecure bool, cert, key, passphrase string) TLSConfig {
	return TLSConfig{
		Verify:           !insecure,
		ClientCert:       cert,
		ClientKey:        key,
		ClientPassphrase: passphrase,
	}
}

// HasClientCertificate сообщает, будет ли предъявлен клиентский сертификат.
//
// Бандл строится, если непустое хотя бы одно из cert/key/passphrase.
func (c TLSConfig) HasClientCertificate() bool {
	return c.ClientCert != "" || c.ClientKey != "" || c.ClientPassphrase != ""
}

// Options — параметры HTTP клиента.
type Options struct {
	// Timeout ограничивает весь запрос, включая чтение ответа.
	Timeout time.Duration

	TLS TLSConfig

	// Tracing оборачивает транспорт в otelhttp.
	Tracing bool
}

// NewHTTPClient возвращает *http.Client с заданным timeout и TLS.
func NewHTTPClient(opts Options) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsClientConfig(opts.TLS)

	var rt http.RoundTripper = base
	if opts.Tracing {
		rt = otelhttp.NewTransport(rt)
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: rt,
	}
}

func tlsClientConfig(c TLSConfig) *tls.Config {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !c.Verify,
	}

	if c.HasClientCertificate() {
		cert, key, pass := c.ClientCert, c.ClientKey, c.ClientPassphrase
		cfg.GetClientCertificate = func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
			return LoadClientCertificate(cert, key, pass)
		}
	}

	return cfg
}
