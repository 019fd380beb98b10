package xmlsig

import (
	"crypto"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// SignOptions names the inputs spec.md §4.6's Sign operation takes:
// keystore file, keystore password, key alias, key password, and the
// target output path. CertPath/KeyPath sign from a PEM certificate and
// private key pair instead, per spec.md §6's "PEM/CER certificates" input;
// exactly one of KeystorePath or CertPath must be set.
type SignOptions struct {
	XMLPath          string
	KeystorePath     string
	KeystorePassword string
	KeyAlias         string
	KeyPassword      string
	CertPath         string
	KeyPath          string
	OutputPath       string
	Method           SignatureMethod // defaults to RSASHA256
}

// Sign parses opts.XMLPath, builds an enveloped ds:Signature over the
// whole document, and writes the signed document to opts.OutputPath.
func Sign(opts SignOptions) error {
	if opts.Method == "" {
		opts.Method = RSASHA256
	}

	km, err := resolveSigningKey(opts)
	if err != nil {
		return err
	}

	return signWithKeyMaterial(opts.XMLPath, opts.OutputPath, km, opts.Method)
}

func resolveSigningKey(opts SignOptions) (*KeyMaterial, error) {
	if opts.CertPath != "" {
		return LoadPEM(opts.CertPath, opts.KeyPath, opts.KeyPassword)
	}
	return LoadKeystore(opts.KeystorePath, opts.KeystorePassword, opts.KeyAlias, opts.KeyPassword)
}

// signWithKeyMaterial implements the Sign operation once a key and
// certificate have already been resolved, independent of which keystore
// format supplied them.
func signWithKeyMaterial(xmlPath, outputPath string, km *KeyMaterial, method SignatureMethod) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(xmlPath); err != nil {
		return &SignError{Stage: "parse", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return &SignError{Stage: "parse", Err: fmt.Errorf("document has no root element")}
	}

	hash := hashForMethod(method)
	digest := referenceDigest(root, hash)

	sigEl := buildSignatureElement(method, hash, digest, km)
	root.AddChild(sigEl)

	signedInfo := sigEl.FindElement("SignedInfo")
	signedInfoDigest := canonicalize(signedInfo)
	signatureValue, err := km.PrivateKey.Sign(rand.Reader, hashDigest(hash, signedInfoDigest), hash)
	if err != nil {
		return &SignError{Stage: "sign", Err: err}
	}
	sigEl.FindElement("SignatureValue").SetText(base64.StdEncoding.EncodeToString(signatureValue))

	out, err := doc.WriteToBytes()
	if err != nil {
		return &SignError{Stage: "serialize", Err: err}
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return &SignError{Stage: "write", Err: err}
	}
	return nil
}

// referenceDigest applies the enveloped-signature transform (a no-op here
// since the signature hasn't been inserted yet) followed by exc-c14n, then
// hashes the canonical bytes — spec.md §4.6's "Reference '' (the whole
// document)" with the two named transforms.
func referenceDigest(root *etree.Element, hash crypto.Hash) []byte {
	canon := canonicalize(root)
	return hashDigest(hash, canon)
}

func hashDigest(hash crypto.Hash, data []byte) []byte {
	switch hash {
	case crypto.SHA1:
		sum := sha1.Sum(data)
		return sum[:]
	default:
		sum := sha256.Sum256(data)
		return sum[:]
	}
}

func buildSignatureElement(method SignatureMethod, hash crypto.Hash, digest []byte, km *KeyMaterial) *etree.Element {
	sig := etree.NewElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", dsNamespace)

	signedInfo := sig.CreateElement("SignedInfo")
	c14n := signedInfo.CreateElement("CanonicalizationMethod")
	c14n.CreateAttr("Algorithm", excC14NAlgorithm)
	sm := signedInfo.CreateElement("SignatureMethod")
	sm.CreateAttr("Algorithm", string(method))

	reference := signedInfo.CreateElement("Reference")
	reference.CreateAttr("URI", "")
	transforms := reference.CreateElement("Transforms")
	t1 := transforms.CreateElement("Transform")
	t1.CreateAttr("Algorithm", envelopedSigTransform)
	t2 := transforms.CreateElement("Transform")
	t2.CreateAttr("Algorithm", excC14NAlgorithm)
	dm := reference.CreateElement("DigestMethod")
	dm.CreateAttr("Algorithm", digestURIForHash(hash))
	reference.CreateElement("DigestValue").SetText(base64.StdEncoding.EncodeToString(digest))

	sig.CreateElement("SignatureValue")

	keyInfo := sig.CreateElement("KeyInfo")
	x509Data := keyInfo.CreateElement("X509Data")
	if km.Certificate != nil {
		x509Data.CreateElement("X509Certificate").SetText(base64.StdEncoding.EncodeToString(km.Certificate.Raw))
	}

	return sig
}
