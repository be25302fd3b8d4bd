// Package sigv4 implements the SigV4 Signer (C6): canonicalization and
// HMAC-SHA256 signing of S3 HTTP requests per AWS Signature Version 4. The
// signer is pure given a fixed clock, and is implemented by hand rather
// than delegated to the AWS SDK: this component is itself under test
// against AWS's published vectors.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// UnsignedPayload is the literal bodyHash value for streaming uploads whose
// body is authenticated by TLS rather than by a precomputed content hash.
const UnsignedPayload = "UNSIGNED-PAYLOAD"

const (
	dateFormat     = "20060102"
	timestampFormat = "20060102T150405Z"
	algorithm      = "AWS4-HMAC-SHA256"
	terminator     = "aws4_request"
	service        = "s3"
)

// Credentials is the access/secret key pair used to sign a request.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Sign mutates req in place: it sets Host, x-amz-date, and
// x-amz-content-sha256, computes the canonical request and signing key, and
// sets the Authorization header. now is injected rather than read from the
// clock so the signer is deterministically testable.
func Sign(req *http.Request, creds Credentials, region string, bodyHash string, now time.Time) error {
	timestamp := now.UTC().Format(timestampFormat)
	dateStamp := now.UTC().Format(dateFormat)

	req.Header.Set("x-amz-date", timestamp)
	req.Header.Set("x-amz-content-sha256", bodyHash)
	if req.Host == "" {
		req.Host = req.URL.Host
	}

	canonicalRequest, signedHeaders := canonicalRequest(req, bodyHash)
	scope := fmt.Sprintf("%s/%s/%s/%s", dateStamp, region, service, terminator)
	stringToSign := strings.Join([]string{
		algorithm,
		timestamp,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signingKey := deriveSigningKey(creds.SecretAccessKey, dateStamp, region)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	authHeader := fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, creds.AccessKeyID, scope, signedHeaders, signature,
	)
	req.Header.Set("Authorization", authHeader)
	return nil
}

// canonicalRequest builds the canonical request string (spec.md §4.6 step
// 2) and returns it alongside the semicolon-joined signed header names.
func canonicalRequest(req *http.Request, bodyHash string) (string, string) {
	canonicalPath := canonicalURIPath(req.URL.Path)
	canonicalQuery := canonicalQueryString(req.URL.Query())

	headerNames, canonicalHeaders := canonicalHeaders(req)

	canonical := strings.Join([]string{
		req.Method,
		canonicalPath,
		canonicalQuery,
		canonicalHeaders, // each header line already ends in "\n"
		headerNames,
		bodyHash,
	}, "\n")

	return canonical, headerNames
}

// canonicalURIPath AWS-URI-encodes each path segment, preserving slashes.
func canonicalURIPath(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = awsURIEncode(seg, false)
	}
	return strings.Join(segments, "/")
}

// canonicalQueryString sorts query parameters by name and AWS-URI-encodes
// both names and values independently.
func canonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []string
	for _, name := range names {
		vs := append([]string(nil), values[name]...)
		sort.Strings(vs)
		for _, v := range vs {
			pairs = append(pairs, awsURIEncode(name, true)+"="+awsURIEncode(v, true))
		}
	}
	return strings.Join(pairs, "&")
}

// canonicalHeaders returns the semicolon-joined signed header names and the
// newline-joined "name:value" canonical header block. Every header present
// on the request is signed, plus Host, matching this signer's exclusive use
// for requests it itself constructs.
func canonicalHeaders(req *http.Request) (string, string) {
	headerSet := map[string][]string{
		"host": {req.Host},
	}
	for name, values := range req.Header {
		headerSet[strings.ToLower(name)] = values
	}

	names := make([]string, 0, len(headerSet))
	for name := range headerSet {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		vs := append([]string(nil), headerSet[name]...)
		for i, v := range vs {
			vs[i] = collapseWhitespace(strings.TrimSpace(v))
		}
		lines = append(lines, name+":"+strings.Join(vs, ",")+"\n")
	}

	return strings.Join(names, ";"), strings.Join(lines, "")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// deriveSigningKey implements the 4-step HMAC chain (spec.md §4.6 step 4).
func deriveSigningKey(secretKey, dateStamp, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, terminator)
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// awsURIEncode AWS-URI-encodes s. Unreserved characters (A-Z a-z 0-9 - _ . ~)
// pass through unescaped; everything else is percent-encoded in uppercase
// hex. When encodeSlash is false, '/' also passes through unescaped (used
// for path segments, which are already split on '/').
func awsURIEncode(s string, encodeSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
