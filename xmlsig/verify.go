package xmlsig

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// Verify loads the signed XML at xmlPath, locates its enveloped
// ds:Signature, and checks the reference digest and signature value. When
// trustedCerts is non-empty, the embedded certificate must match one of
// them byte for byte (spec.md §4.6: "or use a provided truststore"); otherwise the
// embedded certificate's public key is used directly.
func Verify(xmlPath string, trustedCerts ...*x509.Certificate) (VerifyResult, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return VerifyResult{}, &SignError{Stage: "read", Err: err}
	}
	return VerifyBytes(data, trustedCerts...)
}

// VerifyBytes is Verify without a filesystem round-trip, useful for
// tamper-detection tests that mutate signed XML in memory.
func VerifyBytes(xmlData []byte, trustedCerts ...*x509.Certificate) (VerifyResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlData); err != nil {
		return VerifyResult{}, &SignError{Stage: "parse", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return VerifyResult{}, &SignError{Stage: "parse", Err: fmt.Errorf("document has no root element")}
	}

	sigEl := findSignature(root)
	if sigEl == nil {
		return VerifyResult{Valid: false, Reason: ReasonNoSignature}, nil
	}

	signedInfo := sigEl.FindElement("SignedInfo")
	if signedInfo == nil {
		return VerifyResult{Valid: false, Reason: ReasonReferenceMismatch, Detail: "missing SignedInfo"}, nil
	}
	digestValueEl := signedInfo.FindElement("Reference/DigestValue")
	sigValueEl := sigEl.FindElement("SignatureValue")
	if digestValueEl == nil || sigValueEl == nil {
		return VerifyResult{Valid: false, Reason: ReasonReferenceMismatch, Detail: "missing DigestValue or SignatureValue"}, nil
	}

	hash := hashFromAlgorithm(signedInfo.FindElement("SignatureMethod"))

	// Recompute the reference digest over the enveloped-signature transform
	// (strip ds:Signature) + exc-c14n, same as Sign's referenceDigest.
	unsigned := root.Copy()
	if stripped := findSignature(unsigned); stripped != nil {
		unsigned.RemoveChild(stripped)
	}
	actualDigest := hashDigest(hash, canonicalize(unsigned))

	storedDigest, err := base64.StdEncoding.DecodeString(digestValueEl.Text())
	if err != nil {
		return VerifyResult{Valid: false, Reason: ReasonReferenceMismatch, Detail: "malformed DigestValue"}, nil
	}
	if !bytesEqual(actualDigest, storedDigest) {
		return VerifyResult{Valid: false, Reason: ReasonReferenceMismatch, Detail: "reference digest mismatch"}, nil
	}

	pub, err := resolveVerificationKey(sigEl, trustedCerts)
	if err != nil {
		return VerifyResult{Valid: false, Reason: ReasonCryptoFailure, Detail: err.Error()}, nil
	}

	signatureValue, err := base64.StdEncoding.DecodeString(sigValueEl.Text())
	if err != nil {
		return VerifyResult{Valid: false, Reason: ReasonCryptoFailure, Detail: "malformed SignatureValue"}, nil
	}

	signedInfoDigest := hashDigest(hash, canonicalize(signedInfo))
	if err := rsa.VerifyPKCS1v15(pub, hash, signedInfoDigest, signatureValue); err != nil {
		return VerifyResult{Valid: false, Reason: ReasonCryptoFailure, Detail: err.Error()}, nil
	}

	return VerifyResult{Valid: true}, nil
}

func findSignature(root *etree.Element) *etree.Element {
	for _, child := range root.ChildElements() {
		if child.Tag == "Signature" && namespaceOf(child) == dsNamespace {
			return child
		}
	}
	return root.FindElement(".//Signature")
}

func namespaceOf(el *etree.Element) string {
	for _, a := range el.Attr {
		if a.FullKey() == "xmlns:ds" || a.FullKey() == "xmlns" {
			return a.Value
		}
	}
	return ""
}

func hashFromAlgorithm(sigMethod *etree.Element) crypto.Hash {
	if sigMethod == nil {
		return crypto.SHA256
	}
	if alg := sigMethod.SelectAttrValue("Algorithm", ""); alg == string(RSASHA1) {
		return crypto.SHA1
	}
	return crypto.SHA256
}

// resolveVerificationKey extracts the embedded X509Certificate's public
// key, or (when trustedCerts is supplied) requires the embedded cert to
// match one of them by raw bytes — a minimal truststore check, not a full
// chain-of-trust walk, since spec.md only asks that verification "use a
// provided truststore", not that this engine re-implement PKI path
// building.
func resolveVerificationKey(sigEl *etree.Element, trustedCerts []*x509.Certificate) (*rsa.PublicKey, error) {
	certEl := sigEl.FindElement("KeyInfo/X509Data/X509Certificate")
	if certEl == nil {
		return nil, fmt.Errorf("no X509Certificate in KeyInfo")
	}
	raw, err := base64.StdEncoding.DecodeString(certEl.Text())
	if err != nil {
		return nil, fmt.Errorf("malformed X509Certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing X509Certificate: %w", err)
	}

	if len(trustedCerts) > 0 {
		trusted := false
		for _, tc := range trustedCerts {
			if bytesEqual(tc.Raw, cert.Raw) {
				trusted = true
				break
			}
		}
		if !trusted {
			return nil, fmt.Errorf("certificate not found in truststore")
		}
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported public key type %T", cert.PublicKey)
	}
	return pub, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
