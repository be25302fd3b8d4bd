package s3client

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cybou-fr/cybs3/internal/sigv4"
)

// Multipart upload is not wired into the core put flow (spec.md §4.7: the
// chunk codec already supports arbitrary size with a known ciphertext
// length up front). It exists for forward compatibility with callers that
// want to parallelize very large uploads across multiple connections.

// CompletedPart identifies one successfully uploaded part, as returned by
// UploadPart and required by CompleteMultipart.
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// InitiateMultipart starts a multipart upload and returns its upload ID.
func (c *Client) InitiateMultipart(ctx context.Context, bucket, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := url.Values{"uploads": {""}}
	resp, err := c.do(ctx, http.MethodPost, bucket, key, query, emptyBodyHash, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var parsed struct {
		XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
		UploadID string   `xml:"UploadId"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse InitiateMultipartUpload response: %w", err)
	}
	return parsed.UploadID, nil
}

// UploadPart uploads one part of a multipart upload and returns its ETag.
func (c *Client) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, body io.Reader, length int64) (string, error) {
	timeout := uploadTimeoutFor(length)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query := url.Values{
		"partNumber": {strconv.Itoa(partNumber)},
		"uploadId":   {uploadID},
	}

	req, err := c.newRequest(ctx, http.MethodPut, bucket, key, query, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = length

	if err := c.sign(req, sigv4.UnsignedPayload); err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload part request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}
	return strings.Trim(resp.Header.Get("ETag"), `"`), nil
}

type completeMultipartUpload struct {
	XMLName xml.Name                `xml:"CompleteMultipartUpload"`
	Parts   []completeMultipartPart `xml:"Part"`
}

type completeMultipartPart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

// CompleteMultipart finalizes a multipart upload from its completed parts.
// The parts may be given in any order: they are sorted by PartNumber before
// sending, since S3 rejects an out-of-order part list.
func (c *Client) CompleteMultipart(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	sorted := append([]CompletedPart(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	payload := completeMultipartUpload{}
	for _, p := range sorted {
		payload.Parts = append(payload.Parts, completeMultipartPart{PartNumber: p.PartNumber, ETag: p.ETag})
	}
	raw, err := xml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode CompleteMultipartUpload: %w", err)
	}

	query := url.Values{"uploadId": {uploadID}}
	req, err := c.newRequest(ctx, http.MethodPost, bucket, key, query, strings.NewReader(string(raw)))
	if err != nil {
		return err
	}
	if err := c.sign(req, sha256Hex(raw)); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("complete multipart request failed: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// AbortMultipart cancels an in-progress multipart upload.
func (c *Client) AbortMultipart(ctx context.Context, bucket, key, uploadID string) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	query := url.Values{"uploadId": {uploadID}}
	resp, err := c.do(ctx, http.MethodDelete, bucket, key, query, emptyBodyHash, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	return checkStatus(resp)
}
