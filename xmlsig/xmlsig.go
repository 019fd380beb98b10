// Package xmlsig creates and verifies enveloped XML Digital Signatures
// (spec.md §4.6). No pack example implements XML-DSig directly, but
// adrianodrix-sped-nfe-go's certificate package signs and verifies NFe
// documents by hand-building a ds:Signature element with beevik/etree and
// canonicalizing it before hashing; this package follows the same shape —
// manual SignedInfo/Reference construction rather than a delegated XML-DSig
// library — generalized from NFe's fixed structure to an arbitrary
// document root.
package xmlsig

import (
	"crypto"
	"crypto/x509"
	"fmt"
)

// SignatureMethod identifies the signing algorithm. RSA-SHA256 is spec.md
// §4.6's default.
type SignatureMethod string

const (
	RSASHA256 SignatureMethod = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	RSASHA1   SignatureMethod = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
)

const (
	dsNamespace           = "http://www.w3.org/2000/09/xmldsig#"
	envelopedSigTransform = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	excC14NAlgorithm      = "http://www.w3.org/2001/10/xml-exc-c14n#"
)

func hashForMethod(m SignatureMethod) crypto.Hash {
	switch m {
	case RSASHA1:
		return crypto.SHA1
	default:
		return crypto.SHA256
	}
}

func digestURIForHash(h crypto.Hash) string {
	switch h {
	case crypto.SHA1:
		return "http://www.w3.org/2000/09/xmldsig#sha1"
	default:
		return "http://www.w3.org/2001/04/xmlenc#sha256"
	}
}

// Reason categorizes why Verify reported a signature invalid, per spec.md
// §4.6's Failure list and §7's crypto-error taxonomy.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNoSignature       Reason = "NoSignature"
	ReasonReferenceMismatch Reason = "ReferenceMismatch"
	ReasonCryptoFailure     Reason = "CryptoFailure"
)

// VerifyResult is spec.md §4.6's Verify contract: { valid, reason? }.
type VerifyResult struct {
	Valid  bool
	Reason Reason
	Detail string
}

// SignError wraps a signing-stage failure with the stage name, so callers
// can distinguish "bad keystore" from "bad XML" without string-matching.
type SignError struct {
	Stage string
	Err   error
}

func (e *SignError) Error() string { return fmt.Sprintf("xmlsig: %s: %v", e.Stage, e.Err) }
func (e *SignError) Unwrap() error { return e.Err }

// KeyMaterial bundles the signing key, leaf certificate, and chain
// extracted from a keystore or PEM pair — the shape certificate.Certificate
// reduces to once a Sign() call only needs crypto material, not the
// teacher's full identity-management surface (expiry caching, SEFAZ chain
// validation), which belongs to a certificate-issuing system, not a signer.
type KeyMaterial struct {
	PrivateKey  crypto.Signer
	Certificate *x509.Certificate
	Chain       []*x509.Certificate
}
