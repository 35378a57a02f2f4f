package transport

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/youmark/pkcs8"
)

// LoadClientCertificate читает клиентский сертификат и ключ.
//
// Если keyFile пустой, ключ ищется в файле сертификата (combined PEM).
// Поддерживаются незашифрованные ключи, legacy PEM шифрование
// (Proc-Type: 4,ENCRYPTED) и PKCS#8 "ENCRYPTED PRIVATE KEY".
func LoadClientCertificate(certFile, keyFile, passphrase string) (*tls.Certificate, error) {
	if certFile == "" {
		return nil, fmt.Errorf("client certificate: certificate path is empty")
	}
	if keyFile == "" {
		keyFile = certFile
	}

	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("client certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("client certificate key: %w", err)
	}

	keyPEM, err = decryptKeyPEM(keyPEM, passphrase)
	if err != nil {
		return nil, fmt.Errorf("client certificate key %s: %w", keyFile, err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("client certificate: %w", err)
	}
	return &cert, nil
}

// decryptKeyPEM возвращает PEM с расшифрованным приватным ключом.
// Незашифрованный ввод возвращается как есть.
func decryptKeyPEM(data []byte, passphrase string) ([]byte, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return data, nil
		}
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue
		}

		switch {
		case block.Type == "ENCRYPTED PRIVATE KEY":
			if passphrase == "" {
				return nil, fmt.Errorf("key is encrypted but no passphrase given")
			}
			key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(passphrase))
			if err != nil {
				return nil, fmt.Errorf("decrypt pkcs8 key: %w", err)
			}
			der, err := x509.MarshalPKCS8PrivateKey(key)
			if err != nil {
				return nil, fmt.Errorf("marshal decrypted key: %w", err)
			}
			return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil

		case x509.IsEncryptedPEMBlock(block): //nolint:staticcheck // legacy Proc-Type шифрование, в pkcs8 его нет
			if passphrase == "" {
				return nil, fmt.Errorf("key is encrypted but no passphrase given")
			}
			der, err := x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck // устаревший формат, поддерживается для старых ключей
			if err != nil {
				return nil, fmt.Errorf("decrypt pem key: %w", err)
			}
			return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil

		default:
			return data, nil
		}
	}
}
