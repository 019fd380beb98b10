package xmlsig

import (
	"bytes"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"
)

// jksMagic is the four-byte signature every JKS keystore starts with.
const jksMagic = 0xFEEDFEED

// jksPrivateKeyTag and jksTrustedCertTag are the two entry kinds a JKS
// keystore stores, per Sun's (undocumented but stable) binary layout.
const (
	jksPrivateKeyTag  = 1
	jksTrustedCertTag = 2
)

// loadJKS reads a Sun JKS keystore and returns the named alias's private
// key and certificate chain. No pack example or common Go library parses
// this format (see DESIGN.md), so this is a direct implementation of
// Sun's documented-by-convention layout: magic, version, entry count, then
// per-entry tag/alias/timestamp/payload, decrypting the private key with
// the JavaSoft proprietary key-protection algorithm (repeated
// SHA1(password-as-UTF16BE || running-digest) keystream XORed against the
// encrypted key, with a trailing SHA1 integrity check).
func loadJKS(data []byte, storePassword, alias, keyPassword string) (*KeyMaterial, error) {
	r := bytes.NewReader(data)

	var magic, version, count uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil || magic != jksMagic {
		return nil, &SignError{Stage: "jks decode", Err: fmt.Errorf("not a JKS keystore")}
	}
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, &SignError{Stage: "jks decode", Err: err}
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, &SignError{Stage: "jks decode", Err: err}
	}

	if keyPassword == "" {
		keyPassword = storePassword
	}

	for i := uint32(0); i < count; i++ {
		var tag uint32
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, &SignError{Stage: "jks decode", Err: err}
		}
		entryAlias, err := readJKSUTF(r)
		if err != nil {
			return nil, &SignError{Stage: "jks decode", Err: err}
		}
		var timestamp int64
		if err := binary.Read(r, binary.BigEndian, &timestamp); err != nil {
			return nil, &SignError{Stage: "jks decode", Err: err}
		}

		switch tag {
		case jksPrivateKeyTag:
			km, err := readJKSPrivateKeyEntry(r, keyPassword)
			if err != nil {
				return nil, err
			}
			if entryAlias == alias || alias == "" {
				return km, nil
			}
		case jksTrustedCertTag:
			if _, _, err := readJKSCertEntry(r); err != nil {
				return nil, err
			}
		default:
			return nil, &SignError{Stage: "jks decode", Err: fmt.Errorf("unknown entry tag %d", tag)}
		}
	}

	return nil, &SignError{Stage: "jks decode", Err: fmt.Errorf("alias %q not found", alias)}
}

func readJKSUTF(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readJKSBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readJKSCertEntry(r *bytes.Reader) (string, *x509.Certificate, error) {
	certType, err := readJKSUTF(r)
	if err != nil {
		return "", nil, &SignError{Stage: "jks decode", Err: err}
	}
	raw, err := readJKSBytes(r)
	if err != nil {
		return "", nil, &SignError{Stage: "jks decode", Err: err}
	}
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return "", nil, &SignError{Stage: "jks decode", Err: fmt.Errorf("parsing certificate: %w", err)}
	}
	return certType, cert, nil
}

func readJKSPrivateKeyEntry(r *bytes.Reader, keyPassword string) (*KeyMaterial, error) {
	encryptedKey, err := readJKSBytes(r)
	if err != nil {
		return nil, &SignError{Stage: "jks decode", Err: err}
	}
	plainKey, err := decryptJKSKey(encryptedKey, keyPassword)
	if err != nil {
		return nil, &SignError{Stage: "jks decrypt", Err: err}
	}
	key, err := x509.ParsePKCS8PrivateKey(plainKey)
	if err != nil {
		key, err = x509.ParsePKCS1PrivateKey(plainKey)
	}
	if err != nil {
		return nil, &SignError{Stage: "jks decode", Err: fmt.Errorf("parsing private key: %w", err)}
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, &SignError{Stage: "jks decode", Err: fmt.Errorf("unsupported private key type %T", key)}
	}

	var chainLen uint32
	if err := binary.Read(r, binary.BigEndian, &chainLen); err != nil {
		return nil, &SignError{Stage: "jks decode", Err: err}
	}
	var chain []*x509.Certificate
	for i := uint32(0); i < chainLen; i++ {
		_, cert, err := readJKSCertEntry(r)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cert)
	}

	var leaf *x509.Certificate
	if len(chain) > 0 {
		leaf = chain[0]
	}
	return &KeyMaterial{PrivateKey: rsaKey, Certificate: leaf, Chain: chain}, nil
}

// decryptJKSKey implements sun.security.provider.KeyProtector's password-
// based key protection: a keystream is built by repeatedly hashing
// SHA1(passwordUTF16BE || previousDigest), seeded with the stored salt
// (the encrypted blob's first 20 bytes), XORed against the encrypted key
// bytes; the last 20 bytes of the blob are an integrity digest checked
// against SHA1(passwordUTF16BE || plaintext).
func decryptJKSKey(blob []byte, password string) ([]byte, error) {
	const digestLen = sha1.Size
	if len(blob) < 2*digestLen {
		return nil, fmt.Errorf("encrypted key blob too short")
	}

	salt := blob[:digestLen]
	encryptedKey := blob[digestLen : len(blob)-digestLen]
	storedDigest := blob[len(blob)-digestLen:]

	passwordBytes := utf16BE(password)

	keystream := make([]byte, 0, len(encryptedKey)+digestLen)
	digest := salt
	for len(keystream) < len(encryptedKey) {
		h := sha1.New()
		h.Write(passwordBytes)
		h.Write(digest)
		digest = h.Sum(nil)
		keystream = append(keystream, digest...)
	}

	plain := make([]byte, len(encryptedKey))
	for i := range plain {
		plain[i] = encryptedKey[i] ^ keystream[i]
	}

	check := sha1.New()
	check.Write(passwordBytes)
	check.Write(plain)
	if !bytes.Equal(check.Sum(nil), storedDigest) {
		return nil, fmt.Errorf("incorrect key password")
	}

	return plain, nil
}

// utf16BE encodes s as big-endian UTF-16, matching Java's char[] encoding
// used by the keystore password-hashing algorithm.
func utf16BE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u >> 8)
		out[2*i+1] = byte(u)
	}
	return out
}
