package xmlsig

import (
	"crypto"
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"software.sslmate.com/src/go-pkcs12"
)

// LoadKeystore loads a signing key and certificate chain from a Java-style
// keystore file, per spec.md §6 ("Java-style keystores (JKS, PKCS12)").
// The format is dispatched by extension: .p12/.pfx go through
// software.sslmate.com/src/go-pkcs12 (adrianodrix-sped-nfe-go's own
// dependency for the same purpose); .jks uses a minimal reader for Sun's
// JKS binary format, since no JKS library appears anywhere in the
// retrieved corpus or a commonly-known Go ecosystem package (see
// DESIGN.md).
func LoadKeystore(path, password, alias, keyPassword string) (*KeyMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SignError{Stage: "keystore read", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return loadPKCS12(data, password)
	case ".jks":
		return loadJKS(data, password, alias, keyPassword)
	default:
		return nil, &SignError{Stage: "keystore", Err: fmt.Errorf("unrecognized keystore extension %q", filepath.Ext(path))}
	}
}

func loadPKCS12(data []byte, password string) (*KeyMaterial, error) {
	key, cert, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, &SignError{Stage: "pkcs12 decode", Err: err}
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			signer = rsaKey
		} else {
			return nil, &SignError{Stage: "pkcs12 decode", Err: fmt.Errorf("private key type %T is not a crypto.Signer", key)}
		}
	}
	return &KeyMaterial{PrivateKey: signer, Certificate: cert, Chain: chain}, nil
}
