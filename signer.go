package yggdrasil

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"

	"github.com/goliatone/go-errors"
)

// Signer produces per-property RSA signatures over UTF-8 property values:
// RSASSA-PKCS1-v1_5 over a SHA-1 digest, base64-encoded, the scheme game
// clients verify profile properties with. A missing or unparseable private
// key disables signing instead of failing startup; the service then emits
// properties unsigned and never advertises a public key.
type Signer struct {
	key       *rsa.PrivateKey
	publicPEM string
	logger    Logger
}

// NewSigner parses the PKCS#8 PEM private key and precomputes it for
// signing. An empty or invalid key yields a disabled signer.
func NewSigner(privateKeyPEM string) *Signer {
	s := &Signer{logger: defLogger{}}

	if privateKeyPEM == "" {
		return s
	}

	key, publicPEM, err := parseSigningKey(privateKeyPEM)
	if err != nil {
		s.logger.Warn("signature key unusable, signing disabled: %v", err)
		return s
	}

	s.key = key
	s.publicPEM = publicPEM
	return s
}

func (s *Signer) WithLogger(logger Logger) *Signer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Enabled reports whether a usable private key is configured.
func (s *Signer) Enabled() bool {
	return s.key != nil
}

// PublicKeyPEM returns the PEM-encoded public key advertised in the
// metadata document, or "" when signing is disabled.
func (s *Signer) PublicKeyPEM() string {
	return s.publicPEM
}

// Sign produces the base64 signature for one property value.
func (s *Signer) Sign(value []byte) (string, error) {
	if s.key == nil {
		return "", errors.New("signing is disabled", errors.CategoryOperation)
	}

	digest := sha1.Sum(value)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA1, digest[:])
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "property signing failed")
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

func parseSigningKey(privateKeyPEM string) (*rsa.PrivateKey, string, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, "", errors.New("no PEM block in signature key", errors.CategoryBadInput)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryBadInput, "signature key is not valid PKCS#8")
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, "", errors.New("signature key is not an RSA key", errors.CategoryBadInput)
	}

	key.Precompute()

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "public key encoding failed")
	}

	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))

	// Startup key validation: a key that cannot produce one signature now
	// will not produce one per-request either.
	digest := sha1.Sum([]byte("startup"))
	if _, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:]); err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryBadInput, "signature key cannot sign")
	}

	return key, publicPEM, nil
}
