package xmlsig

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"
)

// SelfSignedOptions configures GenerateSelfSigned.
type SelfSignedOptions struct {
	CommonName string
	ValidFor   time.Duration // defaults to one year
	KeyBits    int           // defaults to 2048
}

// GenerateSelfSigned creates an RSA key pair and a self-signed X.509
// certificate, per spec.md §6's "X.509 self-signed certificates (PEM)"
// output. It returns the PEM-encoded certificate and the raw PKCS#8 key
// bytes (undpassword-protected); callers that want the AES-256-CFB
// envelope pass the latter to EncryptPrivateKeyPEM.
func GenerateSelfSigned(opts SelfSignedOptions) (certPEM []byte, pkcs8Key []byte, err error) {
	if opts.KeyBits <= 0 {
		opts.KeyBits = 2048
	}
	if opts.ValidFor <= 0 {
		opts.ValidFor = 365 * 24 * time.Hour
	}
	if opts.CommonName == "" {
		opts.CommonName = "xmlkit-self-signed"
	}

	key, err := rsa.GenerateKey(rand.Reader, opts.KeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("xmlsig: generating key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("xmlsig: generating serial: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: opts.CommonName},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(opts.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("xmlsig: creating certificate: %w", err)
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("xmlsig: marshaling key: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return certPEM, keyBytes, nil
}

// WriteSelfSigned generates a self-signed certificate and writes the
// certificate PEM plus an AES-256-CFB-encrypted private key PEM to disk.
func WriteSelfSigned(opts SelfSignedOptions, keyPassword, certPath, keyPath string) error {
	certPEM, keyBytes, err := GenerateSelfSigned(opts)
	if err != nil {
		return err
	}
	encKey, err := EncryptPrivateKeyPEM(keyBytes, keyPassword)
	if err != nil {
		return fmt.Errorf("xmlsig: encrypting key: %w", err)
	}
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("xmlsig: writing certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, encKey, 0o600); err != nil {
		return fmt.Errorf("xmlsig: writing key: %w", err)
	}
	return nil
}
