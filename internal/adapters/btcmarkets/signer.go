package btcmarkets

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const userAgent = "btc-accumulation-bot/3.0"

// Signer builds the BM-AUTH-* authentication header set for API requests.
// The private key is base64-decoded once at construction; a malformed key
// fails here rather than on the first signed call.
type Signer struct {
	apiKey string
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer from the API key and the base64-encoded private key.
func NewSigner(apiKey, privateKey string) (*Signer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	secret, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid base64: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("private key is empty")
	}
	return &Signer{apiKey: apiKey, secret: secret, now: time.Now}, nil
}

// Sign returns the base64-encoded HMAC-SHA512 signature of the canonical
// message method + path + timestamp with the serialized body, if any, appended
// verbatim. The query string is not part of the signed message. The body bytes
// must be exactly the bytes that will be transmitted.
func (s *Signer) Sign(method, path, timestamp string, body []byte) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(method + path + timestamp))
	if body != nil {
		mac.Write(body)
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Headers builds the full header set for one request. The millisecond
// timestamp is generated once and reused identically in the signed message and
// the BM-AUTH-TIMESTAMP header; regenerating it would break verification
// server-side.
func (s *Signer) Headers(method, path string, body []byte) http.Header {
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Charset", "UTF-8")
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", userAgent)
	h.Set("BM-AUTH-APIKEY", s.apiKey)
	h.Set("BM-AUTH-TIMESTAMP", timestamp)
	h.Set("BM-AUTH-SIGNATURE", s.Sign(method, path, timestamp, body))
	return h
}
