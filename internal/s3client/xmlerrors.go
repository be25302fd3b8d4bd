package s3client

import (
	"encoding/xml"
	"io"
	"net/http"

	"github.com/cybou-fr/cybs3/internal/errkinds"
)

// s3Error mirrors the XML error body S3 returns on non-2xx responses:
// <Error><Code>...</Code><Message>...</Message></Error>.
type s3Error struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// classifyResponseError reads and classifies a non-2xx response body,
// mapping known S3 error Codes to the typed sentinels in errkinds
// (spec.md §6 "Error mapping") and wrapping everything else in
// RequestFailedError.
func classifyResponseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var parsed s3Error
	_ = xml.Unmarshal(body, &parsed) // best-effort; empty Code falls through below

	switch parsed.Code {
	case "AccessDenied":
		return errkinds.ErrAccessDenied
	case "NoSuchBucket":
		return errkinds.ErrBucketNotFound
	case "NoSuchKey":
		return errkinds.ErrObjectNotFound
	case "BucketNotEmpty":
		return errkinds.ErrBucketNotEmpty
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errkinds.ErrAuthenticationFailed
	}

	return &errkinds.RequestFailedError{
		Status:  resp.StatusCode,
		Code:    parsed.Code,
		Message: parsed.Message,
	}
}
