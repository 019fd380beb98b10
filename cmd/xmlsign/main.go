// Command xmlsign signs and verifies enveloped XML Digital Signatures.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/freexmltoolkit/xmlkit/xmlsig"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "sign":
		runSign(os.Args[2:])
	case "verify":
		runVerify(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: xmlsign sign -keystore=f.p12 -storepass=pw -alias=a -keypass=pw <in.xml> <out.xml>")
	fmt.Fprintln(os.Stderr, "       xmlsign sign -cert=f.crt -key=f.key -keypass=pw <in.xml> <out.xml>")
	fmt.Fprintln(os.Stderr, "       xmlsign verify <signed.xml>")
	os.Exit(2)
}

func runSign(argv []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keystore := fs.String("keystore", "", "JKS or PKCS12 keystore path")
	storepass := fs.String("storepass", "", "keystore password")
	alias := fs.String("alias", "", "key alias")
	keypass := fs.String("keypass", "", "private key password")
	certPath := fs.String("cert", "", "PEM certificate path (alternative to -keystore)")
	keyPath := fs.String("key", "", "PEM private key path (alternative to -keystore)")
	method := fs.String("method", "rsa-sha256", "signature method: rsa-sha256 or rsa-sha1")
	fs.Parse(argv)

	args := fs.Args()
	if len(args) < 2 {
		usage()
	}

	opts := xmlsig.SignOptions{
		XMLPath:          args[0],
		OutputPath:       args[1],
		KeystorePath:     *keystore,
		KeystorePassword: *storepass,
		KeyAlias:         *alias,
		KeyPassword:      *keypass,
		CertPath:         *certPath,
		KeyPath:          *keyPath,
	}
	if *method == "rsa-sha1" {
		opts.Method = xmlsig.RSASHA1
	}

	if err := xmlsig.Sign(opts); err != nil {
		log.Fatalf("signing %s: %v", args[0], err)
	}
	fmt.Printf("wrote signed document to %s\n", args[1])
}

func runVerify(argv []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.Parse(argv)

	args := fs.Args()
	if len(args) < 1 {
		usage()
	}

	result, err := xmlsig.Verify(args[0])
	if err != nil {
		log.Fatalf("verifying %s: %v", args[0], err)
	}

	if result.Valid {
		fmt.Printf("%s: valid\n", args[0])
		return
	}

	fmt.Printf("%s: invalid (%s)\n", args[0], result.Reason)
	if result.Detail != "" {
		fmt.Printf("  %s\n", result.Detail)
	}
	os.Exit(1)
}
