package photoblog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"

	scopeTerminator = "aws4_request"
	unsignedPayload = "UNSIGNED-PAYLOAD"
)

// Query parameters of a presigned URL.
const (
	paramAlgorithm     = "X-Amz-Algorithm"
	paramCredential    = "X-Amz-Credential"
	paramDate          = "X-Amz-Date"
	paramExpires       = "X-Amz-Expires"
	paramSignedHeaders = "X-Amz-SignedHeaders"
	paramSignature     = "X-Amz-Signature"
)

// credentialScope is the date/region/service triple a signing key is derived for.
type credentialScope struct {
	date    string
	region  string
	service string
}

func (s credentialScope) String() string {
	return s.date + "/" + s.region + "/" + s.service + "/" + scopeTerminator
}

// signingKey derives the SigV4 key for secretKey within the scope.
func (s credentialScope) signingKey(secretKey string) []byte {
	key := hmacSHA256([]byte("AWS4"+secretKey), s.date)
	key = hmacSHA256(key, s.region)
	key = hmacSHA256(key, s.service)
	return hmacSHA256(key, scopeTerminator)
}

// sign computes the hex signature of a presigned request. The signature
// parameter itself is never part of the canonical query.
func (s credentialScope) sign(secretKey, method, path string, query url.Values, headers http.Header, signedHeaders string, at time.Time) string {
	canonical := canonicalRequest(method, path, query, headers, signedHeaders)
	stringToSign := strings.Join([]string{
		SignatureAlgorithm,
		at.Format(DateTimeFormat),
		s.String(),
		sha256Hex(canonical),
	}, "\n")
	return hex.EncodeToString(hmacSHA256(s.signingKey(secretKey), stringToSign))
}

func canonicalRequest(method, path string, query url.Values, headers http.Header, signedHeaders string) string {
	unsigned := make(url.Values, len(query))
	for k, v := range query {
		if k != paramSignature {
			unsigned[k] = v
		}
	}

	names := strings.Split(signedHeaders, ";")
	slices.Sort(names)

	var canonicalHeaders strings.Builder
	for _, name := range names {
		canonicalHeaders.WriteString(name)
		canonicalHeaders.WriteByte(':')
		canonicalHeaders.WriteString(strings.TrimSpace(headers.Get(name)))
		canonicalHeaders.WriteByte('\n')
	}

	return strings.Join([]string{
		method,
		path,
		unsigned.Encode(),
		canonicalHeaders.String(),
		signedHeaders,
		unsignedPayload,
	}, "\n")
}

// SignatureVerifier verifies AWS Signature V4 presigned URLs issued by Signer.
type SignatureVerifier struct {
	Region          string
	Service         string
	AccessKeyLookup func(accessKey string) (secretKey string, found bool)
	Now             func() time.Time
}

// NewSignatureVerifier creates a new signature verifier.
//
// Parameters:
//   - region: AWS region (e.g., "us-east-1")
//   - service: AWS service name (e.g., "s3")
//   - lookup: Function to retrieve secret key by access key. Returns (secretKey, true) if found, ("", false) if not.
func NewSignatureVerifier(region, service string, lookup func(string) (string, bool)) *SignatureVerifier {
	return &SignatureVerifier{
		Region:          region,
		Service:         service,
		AccessKeyLookup: lookup,
		Now:             time.Now,
	}
}

// presignedRequest holds the signature parameters carried in a presigned URL.
type presignedRequest struct {
	algorithm     string
	accessKey     string
	scope         credentialScope
	signedAt      time.Time
	expires       time.Duration
	signedHeaders string
	signature     string
}

func parsePresigned(query url.Values) (presignedRequest, error) {
	var p presignedRequest
	for _, name := range []string{paramAlgorithm, paramCredential, paramDate, paramExpires, paramSignedHeaders, paramSignature} {
		if query.Get(name) == "" {
			return p, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
		}
	}

	signedAt, err := time.Parse(DateTimeFormat, query.Get(paramDate))
	if err != nil {
		return p, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	expires, err := strconv.Atoi(query.Get(paramExpires))
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return p, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	// access_key/date/region/service/aws4_request
	cred := strings.Split(query.Get(paramCredential), "/")
	if len(cred) != 5 {
		return p, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}
	if cred[4] != scopeTerminator {
		return p, fmt.Errorf("invalid credential terminator: expected %s: %w", scopeTerminator, ErrUnauthorized)
	}

	return presignedRequest{
		algorithm:     query.Get(paramAlgorithm),
		accessKey:     cred[0],
		scope:         credentialScope{date: cred[1], region: cred[2], service: cred[3]},
		signedAt:      signedAt,
		expires:       time.Duration(expires) * time.Second,
		signedHeaders: query.Get(paramSignedHeaders),
		signature:     query.Get(paramSignature),
	}, nil
}

// Verify checks a presigned request.
//
// Required query parameters:
//   - X-Amz-Algorithm: Must be "AWS4-HMAC-SHA256"
//   - X-Amz-Credential: Format "access_key/date/region/service/aws4_request"
//   - X-Amz-Date: ISO8601 timestamp (YYYYMMDDTHHMMSSZ)
//   - X-Amz-Expires: Validity duration in seconds (1-604800)
//   - X-Amz-SignedHeaders: Semicolon-separated list of signed headers
//   - X-Amz-Signature: Hex-encoded HMAC-SHA256 signature
//
// Returns an error wrapping ErrUnauthorized if verification fails, nil if the signature is valid.
func (v *SignatureVerifier) Verify(method, path string, query url.Values, headers http.Header) error {
	p, err := parsePresigned(query)
	if err != nil {
		return err
	}

	switch {
	case p.algorithm != SignatureAlgorithm:
		return fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, p.algorithm, ErrUnauthorized)
	case v.now().After(p.signedAt.Add(p.expires)):
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	case p.scope.date != p.signedAt.Format(DateFormat):
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	case p.scope.region != v.Region:
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.Region, p.scope.region, ErrUnauthorized)
	case p.scope.service != v.Service:
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.Service, p.scope.service, ErrUnauthorized)
	}

	secretKey, found := v.AccessKeyLookup(p.accessKey)
	if !found {
		return fmt.Errorf("invalid access key: %w", ErrUnauthorized)
	}

	want := p.scope.sign(secretKey, method, path, query, headers, p.signedHeaders, p.signedAt)
	if !hmac.Equal([]byte(want), []byte(p.signature)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}

// VerifyRequest verifies the presigned URL of an incoming request.
func (v *SignatureVerifier) VerifyRequest(r *http.Request) error {
	// Go stores Host separately from Header
	headers := r.Header.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Host", r.Host)

	return v.Verify(r.Method, r.URL.Path, r.URL.Query(), headers)
}

func (v *SignatureVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Signer produces AWS Signature V4 presigned URLs that SignatureVerifier accepts.
// The host header is always signed and the payload is left unsigned.
type Signer struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
	Now       func() time.Time
}

func NewSigner(accessKey, secretKey, region, service string) *Signer {
	return &Signer{
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
		Service:   service,
		Now:       time.Now,
	}
}

// Presign returns u with signature query parameters authorizing method until ttl elapses.
// Existing query parameters of u are kept and covered by the signature.
func (s *Signer) Presign(method string, u *url.URL, ttl time.Duration) (string, error) {
	return s.PresignHeaders(method, u, ttl, nil)
}

// PresignHeaders is like Presign but also signs headers. The holder of the
// URL must send each of them with the same value.
func (s *Signer) PresignHeaders(method string, u *url.URL, ttl time.Duration, headers http.Header) (string, error) {
	expires := int(ttl / time.Second)
	if expires <= 0 || expires > MaxExpiresSeconds {
		return "", fmt.Errorf("presign: expires must be between 1 and %d seconds", MaxExpiresSeconds)
	}
	if u.Host == "" {
		return "", fmt.Errorf("presign: url %q has no host", u.String())
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	signedAt := now().UTC()
	scope := credentialScope{date: signedAt.Format(DateFormat), region: s.Region, service: s.Service}

	signed := http.Header{}
	names := []string{"host"}
	for name, values := range headers {
		name = strings.ToLower(name)
		if name == "host" || len(values) == 0 {
			continue
		}
		signed.Set(name, values[0])
		names = append(names, name)
	}
	signed.Set("Host", u.Host)
	slices.Sort(names)
	signedHeaders := strings.Join(names, ";")

	query := u.Query()
	query.Set(paramAlgorithm, SignatureAlgorithm)
	query.Set(paramCredential, s.AccessKey+"/"+scope.String())
	query.Set(paramDate, signedAt.Format(DateTimeFormat))
	query.Set(paramExpires, strconv.Itoa(expires))
	query.Set(paramSignedHeaders, signedHeaders)

	query.Set(paramSignature, scope.sign(s.SecretKey, method, u.Path, query, signed, signedHeaders, signedAt))

	out := *u
	out.RawQuery = query.Encode()
	return out.String(), nil
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
