package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/dvloznov/receipts-web/internal/broker"
	"github.com/dvloznov/receipts-web/internal/failure"
)

// Staged identifies an image that has been transferred to storage.
type Staged struct {
	ImageID   string
	ObjectKey string
	UploadURL string
}

// Stager puts the bytes of a file into storage.
type Stager interface {
	Stage(ctx context.Context, f File) (Staged, error)
}

// PresignedStager asks the broker for a slot and PUTs the file to its URL.
type PresignedStager struct {
	BrokerURL string
	HTTP      *http.Client
}

// Stage implements Stager.
func (s *PresignedStager) Stage(ctx context.Context, f File) (Staged, error) {
	body, err := json.Marshal(broker.SlotRequest{
		FileName:    f.Name,
		ContentType: f.ContentType,
		SizeBytes:   f.Size,
	})
	if err != nil {
		return Staged{}, fmt.Errorf("Stage: encode slot request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BrokerURL, bytes.NewReader(body))
	if err != nil {
		return Staged{}, fmt.Errorf("Stage: build slot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var slot broker.Slot
	if err := roundTrip(httpClient(s.HTTP), req, &slot); err != nil {
		return Staged{}, fmt.Errorf("Stage: request slot: %w", err)
	}
	if slot.ImageID == "" || slot.ObjectKey == "" || slot.UploadURL == "" {
		return Staged{}, fmt.Errorf("Stage: %w", failure.Shape("Upload service returned an incomplete response", nil))
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, f.Body)
	if err != nil {
		return Staged{}, fmt.Errorf("Stage: build transfer: %w", err)
	}
	put.Header.Set("Content-Type", f.ContentType)
	if f.Size > 0 {
		put.ContentLength = f.Size
	}
	if err := roundTrip(httpClient(s.HTTP), put, nil); err != nil {
		return Staged{}, fmt.Errorf("Stage: transfer: %w", err)
	}

	return Staged{ImageID: slot.ImageID, ObjectKey: slot.ObjectKey, UploadURL: slot.UploadURL}, nil
}

// MultipartStager posts the file to the legacy upload endpoint, which writes it
// to storage itself. The returned key serves as both image id and object key.
type MultipartStager struct {
	URL  string
	HTTP *http.Client
}

// Stage implements Stager.
func (s *MultipartStager) Stage(ctx context.Context, f File) (Staged, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.Name)))
		hdr.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(hdr)
		if err == nil {
			_, err = io.Copy(part, f.Body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, pr)
	if err != nil {
		pr.Close()
		return Staged{}, fmt.Errorf("Stage: build upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out broker.LegacyUpload
	if err := roundTrip(httpClient(s.HTTP), req, &out); err != nil {
		pr.Close()
		return Staged{}, fmt.Errorf("Stage: upload: %w", err)
	}
	if out.Key == "" {
		return Staged{}, fmt.Errorf("Stage: %w", failure.Shape("Upload service returned an incomplete response", nil))
	}
	return Staged{ImageID: out.Key, ObjectKey: out.Key, UploadURL: out.URL}, nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

// roundTrip sends req and decodes a JSON response into out when out is non-nil.
func roundTrip(c *http.Client, req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return failure.Transport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Transport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure.Status(resp.StatusCode, failure.MessageFromBody(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return failure.Shape("Upload service returned an unreadable response", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
