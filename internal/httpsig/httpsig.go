// Package httpsig signs and verifies HTTP requests following
// draft-cavage-http-signatures-10, the scheme spoken by ActivityPub
// implementations in the wild.
package httpsig

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RequestTarget is the pseudo-header used to sign the request target.
const RequestTarget = "(request-target)"

// Sign signs the request using the given keyID and privateKey. For POST
// requests the body is required so that a Digest header can be computed
// and included in the signature.
func Sign(req *http.Request, keyID string, privateKey crypto.PrivateKey, body []byte) error {
	req.Header.Set("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")) // Date must be in GMT, not UTC
	headers := []string{RequestTarget}
	switch req.Method {
	case "GET":
		headers = append(headers, "host", "date", "accept")
	case "POST":
		headers = append(headers, "date", "digest")
		sum := sha256.Sum256(body)
		req.Header.Set("Digest", "SHA-256="+base64.StdEncoding.EncodeToString(sum[:]))
	}

	digest, err := signingDigest(req, headers)
	if err != nil {
		return err
	}
	rsaKey, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return errors.New("expected *rsa.PrivateKey")
	}
	sig, err := rsa.SignPKCS1v15(rand.Reader, rsaKey, crypto.SHA256, digest)
	if err != nil {
		return err
	}
	enc := base64.StdEncoding.EncodeToString(sig)
	req.Header.Set("Signature", fmt.Sprintf(`keyId="%s",algorithm="rsa-sha256",headers="%s",signature="%s"`, keyID, strings.Join(headers, " "), enc))
	return nil
}

// Verify verifies the Signature header of the request. keyFn maps the keyId
// named in the signature to a public key.
func Verify(req *http.Request, keyFn func(keyID string) (crypto.PublicKey, error)) error {
	sigHeader := req.Header.Get("Signature")
	if sigHeader == "" {
		return errors.New("Signature header is missing")
	}

	var (
		pubKey  crypto.PublicKey
		algo    string
		sig     []byte
		headers []string
		err     error
	)
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("malformed signature part: %s", part)
		}
		switch k {
		case "keyId":
			pubKey, err = keyFn(strings.Trim(v, "\""))
			if err != nil {
				return err
			}
		case "algorithm":
			algo = strings.Trim(v, "\"")
		case "headers":
			headers = strings.Split(strings.Trim(v, "\""), " ")
		case "signature":
			sig, err = base64.StdEncoding.DecodeString(strings.Trim(v, "\""))
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown signature part: %s", part)
		}
	}
	if algo != "rsa-sha256" {
		return fmt.Errorf("unknown algorithm: %s", algo)
	}

	digest, err := signingDigest(req, headers)
	if err != nil {
		return err
	}
	rsaKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("expected *rsa.PublicKey")
	}
	return rsa.VerifyPKCS1v15(rsaKey, crypto.SHA256, digest, sig)
}

// signingDigest builds the signing string from the named headers and
// returns its sha256 digest.
func signingDigest(req *http.Request, headers []string) ([]byte, error) {
	var sb bytes.Buffer
	for _, header := range headers {
		switch header {
		case RequestTarget:
			sb.WriteString("(request-target): ")
			sb.WriteString(strings.ToLower(req.Method))
			sb.WriteString(" ")
			sb.WriteString(req.URL.Path)
			if req.URL.RawQuery != "" {
				sb.WriteString("?")
				sb.WriteString(req.URL.RawQuery)
			}
		case "Host", "host":
			sb.WriteString("host: ")
			sb.WriteString(req.Host)
		case "Date", "date":
			sb.WriteString("date: ")
			sb.WriteString(req.Header.Get("Date"))
		case "Accept", "accept":
			sb.WriteString("accept: ")
			sb.WriteString(req.Header.Get("Accept"))
		case "Digest", "digest":
			sb.WriteString("digest: ")
			sb.WriteString(req.Header.Get("Digest"))
		default:
			return nil, fmt.Errorf("unknown header to sign: %s", header)
		}
		sb.WriteString("\n")
	}
	hash := sha256.New()
	hash.Write(bytes.TrimRight(sb.Bytes(), "\n"))
	return hash.Sum(nil), nil
}
