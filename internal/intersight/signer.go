package intersight

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// signedHeaders lists the headers covered by the request signature, in
// signing-string order. (request-target) is the draft-signature pseudo
// header for "METHOD path?query".
var signedHeaders = []string{"(request-target)", "host", "date", "digest"}

// Signer signs requests with the Intersight HTTP message signature scheme.
// v2 API keys are RSA (PKCS#1 v1.5 / SHA-256), v3 keys are ECDSA P-256.
type Signer struct {
	keyID string
	key   crypto.Signer
}

// NewSigner loads the PEM private key at keyFile.
func NewSigner(keyID, keyFile string) (*Signer, error) {
	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading private key file")
	}

	key, err := parsePrivateKey(raw)
	if err != nil {
		return nil, err
	}

	return &Signer{keyID: keyID, key: key}, nil
}

func parsePrivateKey(raw []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found in private key file")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}

		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, errors.Errorf("unsupported PKCS#8 key type %T", key)
		}

		return signer, nil
	default:
		return nil, errors.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// Sign sets the Date, Digest and Authorization headers on req. body must be
// the full request body (nil for GET).
func (s *Signer) Sign(req *http.Request, body []byte) error {
	sum := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
	date := time.Now().UTC().Format(http.TimeFormat)

	req.Header.Set("Date", date)
	req.Header.Set("Digest", digest)

	target := strings.ToLower(req.Method) + " " + req.URL.EscapedPath()
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}

	lines := []string{
		"(request-target): " + target,
		"host: " + req.Host,
		"date: " + date,
		"digest: " + digest,
	}
	signingString := strings.Join(lines, "\n")

	signature, err := s.sign([]byte(signingString))
	if err != nil {
		return errors.Wrap(err, "signing request")
	}

	req.Header.Set("Authorization", fmt.Sprintf(
		`Signature keyId="%s",algorithm="hs2019",headers="%s",signature="%s"`,
		s.keyID,
		strings.Join(signedHeaders, " "),
		base64.StdEncoding.EncodeToString(signature),
	))

	return nil
}

func (s *Signer) sign(message []byte) ([]byte, error) {
	hashed := sha256.Sum256(message)

	switch key := s.key.(type) {
	case *rsa.PrivateKey:
		return rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	case *ecdsa.PrivateKey:
		return ecdsa.SignASN1(rand.Reader, key, hashed[:])
	default:
		return nil, errors.Errorf("unsupported private key type %T", s.key)
	}
}
