package xmlsig

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// aesCFBPEMType is the custom PEM block type this package writes for an
// AES-256-CFB-encrypted PKCS#8 private key, since Go's stdlib dropped
// x509.EncryptPEMBlock (RFC 1423 "ENCRYPTED" headers) as insecure;
// spec.md §6 asks for "PEM with AES-256-CFB" regardless, so the envelope
// is custom: salt + IV + ciphertext, base64-wrapped in a PEM block.
const aesCFBPEMType = "XMLSIG ENCRYPTED PRIVATE KEY"

// LoadPEM loads a certificate and private key from separate PEM files, per
// spec.md §6's "PEM/CER certificates" input. keyPassword decrypts a key
// written by EncryptPrivateKeyPEM; an empty keyPassword expects a plain
// PKCS#8 PEM block.
func LoadPEM(certPath, keyPath, keyPassword string) (*KeyMaterial, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, &SignError{Stage: "pem read", Err: err}
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &SignError{Stage: "pem read", Err: err}
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, &SignError{Stage: "pem decode", Err: fmt.Errorf("%s has no PEM block", certPath)}
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, &SignError{Stage: "pem decode", Err: fmt.Errorf("parsing certificate: %w", err)}
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, &SignError{Stage: "pem decode", Err: fmt.Errorf("%s has no PEM block", keyPath)}
	}

	keyBytes := keyBlock.Bytes
	if keyBlock.Type == aesCFBPEMType {
		keyBytes, err = decryptAESCFB(keyBytes, keyPassword)
		if err != nil {
			return nil, &SignError{Stage: "pem decrypt", Err: err}
		}
	}

	key, err := x509.ParsePKCS8PrivateKey(keyBytes)
	if err != nil {
		key, err = x509.ParsePKCS1PrivateKey(keyBytes)
	}
	if err != nil {
		return nil, &SignError{Stage: "pem decode", Err: fmt.Errorf("parsing private key: %w", err)}
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, &SignError{Stage: "pem decode", Err: fmt.Errorf("unsupported private key type %T", key)}
	}

	return &KeyMaterial{PrivateKey: rsaKey, Certificate: cert}, nil
}

// EncryptPrivateKeyPEM wraps a PKCS#8-encoded key in an AES-256-CFB
// envelope and PEM-encodes it, the key-generation output format spec.md
// §6 names ("encrypted private keys (PEM with AES-256-CFB)").
func EncryptPrivateKeyPEM(pkcs8Key []byte, password string) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveAESKey(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(pkcs8Key))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, pkcs8Key)

	payload := append(append(append([]byte{}, salt...), iv...), ciphertext...)
	return pem.EncodeToMemory(&pem.Block{Type: aesCFBPEMType, Bytes: payload}), nil
}

func decryptAESCFB(payload []byte, password string) ([]byte, error) {
	if len(payload) < 16+aes.BlockSize {
		return nil, fmt.Errorf("encrypted key payload too short")
	}
	salt := payload[:16]
	iv := payload[16 : 16+aes.BlockSize]
	ciphertext := payload[16+aes.BlockSize:]

	key := deriveAESKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plain, ciphertext)
	return plain, nil
}

// deriveAESKey stretches password+salt into a 32-byte AES-256 key via a
// single SHA-256 pass, matching the key-derivation weight the teacher's
// own adrianodrix reference applies to keystore passwords (no dedicated
// KDF dependency appears anywhere in the pack for this purpose).
func deriveAESKey(password string, salt []byte) []byte {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write(salt)
	return h.Sum(nil)
}
