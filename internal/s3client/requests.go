package s3client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cybou-fr/cybs3/internal/errkinds"
	"github.com/cybou-fr/cybs3/internal/sigv4"
)

// Object is one entry returned by ListObjects: either a real object
// (isDirectory=false) or a deduplicated common prefix (isDirectory=true).
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	IsDirectory  bool
	ETag         string
}

const (
	listTimeout     = 30 * time.Second
	headTimeout     = 30 * time.Second
	deleteTimeout   = 30 * time.Second
	downloadTimeout = 30 * time.Second // to first byte only; body streaming is unbounded.
)

// ListBuckets implements list_buckets(): GET the service root and extract
// every <Bucket><Name>.
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "", "", nil, emptyBodyHash, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var parsed struct {
		XMLName xml.Name `xml:"ListAllMyBucketsResult"`
		Buckets struct {
			Bucket []struct {
				Name string `xml:"Name"`
			} `xml:"Bucket"`
		} `xml:"Buckets"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ListBuckets response: %w", err)
	}

	names := make([]string, 0, len(parsed.Buckets.Bucket))
	for _, b := range parsed.Buckets.Bucket {
		names = append(names, b.Name)
	}
	return names, nil
}

type listObjectsV2Result struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []struct {
		Key          string    `xml:"Key"`
		Size         int64     `xml:"Size"`
		LastModified time.Time `xml:"LastModified"`
		ETag         string    `xml:"ETag"`
	} `xml:"Contents"`
	CommonPrefixes []struct {
		Prefix string `xml:"Prefix"`
	} `xml:"CommonPrefixes"`
}

// ListObjects implements list_objects(prefix?, delimiter?): paginates
// ListObjectsV2 until IsTruncated=false, deduplicating common prefixes.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix, delimiter string) ([]Object, error) {
	var objects []Object
	seenPrefixes := make(map[string]bool)
	continuationToken := ""

	for {
		page, err := c.listObjectsV2Page(ctx, bucket, prefix, delimiter, continuationToken)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Contents {
			objects = append(objects, Object{
				Key:          item.Key,
				Size:         item.Size,
				LastModified: item.LastModified,
				IsDirectory:  false,
				ETag:         strings.Trim(item.ETag, `"`),
			})
		}
		for _, cp := range page.CommonPrefixes {
			if seenPrefixes[cp.Prefix] {
				continue
			}
			seenPrefixes[cp.Prefix] = true
			objects = append(objects, Object{Key: cp.Prefix, IsDirectory: true})
		}

		if !page.IsTruncated {
			return objects, nil
		}
		continuationToken = page.NextContinuationToken
	}
}

func (c *Client) listObjectsV2Page(ctx context.Context, bucket, prefix, delimiter, continuationToken string) (*listObjectsV2Result, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := url.Values{"list-type": {"2"}}
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	if delimiter != "" {
		query.Set("delimiter", delimiter)
	}
	if continuationToken != "" {
		query.Set("continuation-token", continuationToken)
	}

	resp, err := c.do(ctx, http.MethodGet, bucket, "", query, emptyBodyHash, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var page listObjectsV2Result
	if err := xml.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to parse ListObjectsV2 response: %w", err)
	}
	return &page, nil
}

// HeadObjectSize implements head_object_size(key): returns (size, true) if
// the object exists, (0, false) on 404.
func (c *Client) HeadObjectSize(ctx context.Context, bucket, key string) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, headTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodHead, bucket, key, nil, emptyBodyHash, nil)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, false, nil
	}
	if resp.StatusCode == http.StatusForbidden {
		return 0, false, errkinds.ErrAccessDenied
	}
	if err := checkStatus(resp); err != nil {
		return 0, false, err
	}

	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse Content-Length: %w", err)
	}
	return size, true, nil
}

// GetObjectStream implements get_object_stream(key): returns the response
// body verbatim as an io.ReadCloser. The caller must Close it.
func (c *Client) GetObjectStream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	// The timer bounds only the wait for the response; it is stopped once
	// the response arrives, so reading the body has no overall deadline.
	firstByte := time.AfterFunc(downloadTimeout, cancel)
	resp, err := c.do(ctx, http.MethodGet, bucket, key, nil, emptyBodyHash, nil)
	firstByte.Stop()
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		cancel()
		return nil, errkinds.ErrObjectNotFound
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	return &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelOnCloseBody releases the request context's resources once the
// caller finishes (or abandons) reading the response body.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}

// PutObjectStream implements put_object_stream(key, body, length): streams
// body to the socket without buffering it, declaring length up front.
func (c *Client) PutObjectStream(ctx context.Context, bucket, key string, body io.Reader, length int64) error {
	timeout := uploadTimeoutFor(length)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPut, bucket, key, nil, body)
	if err != nil {
		return err
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", "application/octet-stream")

	if err := c.sign(req, sigv4.UnsignedPayload); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("put object request failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// uploadTimeoutFor scales with payload length: roughly 2s/MiB, floor 300s.
func uploadTimeoutFor(length int64) time.Duration {
	const perMiB = 2 * time.Second
	const floor = 5 * time.Minute
	mibs := length / (1 << 20)
	scaled := time.Duration(mibs) * perMiB
	if scaled < floor {
		return floor
	}
	return scaled
}

// DeleteObject implements delete_object(key): success is 204 or 200.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodDelete, bucket, key, nil, emptyBodyHash, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	return checkStatus(resp)
}

// createBucketConfiguration is the XML body required when the bucket's
// region is not us-east-1.
type createBucketConfiguration struct {
	XMLName            xml.Name `xml:"CreateBucketConfiguration"`
	LocationConstraint string   `xml:"LocationConstraint"`
}

// CreateBucket implements create_bucket(name).
func (c *Client) CreateBucket(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var body io.Reader
	bodyHash := emptyBodyHash
	if c.creds.Region != "us-east-1" {
		raw, err := xml.Marshal(createBucketConfiguration{LocationConstraint: c.creds.Region})
		if err != nil {
			return fmt.Errorf("failed to encode CreateBucketConfiguration: %w", err)
		}
		body = strings.NewReader(string(raw))
		bodyHash = sha256Hex(raw)
	}

	resp, err := c.do(ctx, http.MethodPut, name, "", nil, bodyHash, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// DeleteBucket implements delete_bucket(name).
func (c *Client) DeleteBucket(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodDelete, name, "", nil, emptyBodyHash, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	return checkStatus(resp)
}

// CopyObject implements copy_object(sourceKey, destKey, sourceBucket?).
func (c *Client) CopyObject(ctx context.Context, destBucket, sourceKey, destKey, sourceBucket string) error {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	if sourceBucket == "" {
		sourceBucket = destBucket
	}

	req, err := c.newRequest(ctx, http.MethodPut, destBucket, destKey, nil, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-amz-copy-source", "/"+sourceBucket+"/"+strings.TrimPrefix(sourceKey, "/"))

	if err := c.sign(req, emptyBodyHash); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("copy object request failed: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// emptyBodyHash is the SHA-256 of the empty byte string.
const emptyBodyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// newRequest builds an unsigned request against bucket/key with the given
// query parameters and body. Callers sign it themselves once the body hash
// (or sigv4.UnsignedPayload) is known.
func (c *Client) newRequest(ctx context.Context, method, bucket, key string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.urlFor(bucket, key)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Host = u.Host
	return req, nil
}

// do builds, signs, and executes a request, returning the raw response for
// the caller to interpret (status checking is the caller's job, since some
// callers special-case 404/403 before falling back to checkStatus).
func (c *Client) do(ctx context.Context, method, bucket, key string, query url.Values, bodyHash string, body io.Reader) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, bucket, key, query, body)
	if err != nil {
		return nil, err
	}
	if err := c.sign(req, bodyHash); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to a typed error.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return classifyResponseError(resp)
}
