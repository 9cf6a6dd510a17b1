package textract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

const (
	// visionMaxFileSize is the Vision API limit for synchronous processing (20MB).
	visionMaxFileSize = 20 * 1024 * 1024

	// visionMaxPages is the Vision API page limit for synchronous processing.
	visionMaxPages = 5
)

// VisionExtractor OCRs PDFs through the Google Cloud Vision API using
// document text detection. Synchronous processing only: up to 5 pages and
// 20MB per document.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates the extractor with credentials from the environment:
// GOOGLE_CREDENTIALS (inline JSON) or GOOGLE_APPLICATION_CREDENTIALS (file
// path), falling back to application default credentials.
func NewVision(ctx context.Context) (*VisionExtractor, error) {
	const op = "NewVision"

	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapError(op, err, "failed to create Vision client")
	}
	return &VisionExtractor{client: client}, nil
}

// NewVisionWithClient creates the extractor with an explicit client (for testing).
func NewVisionWithClient(client *vision.ImageAnnotatorClient) *VisionExtractor {
	return &VisionExtractor{client: client}
}

func (v *VisionExtractor) Name() string { return SourceVision }

func (v *VisionExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ExtractText"
	start := time.Now()

	data, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapError(op, err, "failed to read PDF data")
	}
	if len(data) > visionMaxFileSize {
		return nil, WrapError(op, ErrTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, WrapError(op, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapError(op, ErrOCRFailed, "no response from Vision API")
	}
	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	result, err := collectVisionText(fileResp)
	if err != nil {
		return nil, WrapError(op, err, "")
	}
	result.ProcessingDuration = time.Since(start)
	return result, nil
}

func collectVisionText(fileResp *visionpb.AnnotateFileResponse) (*Result, error) {
	pageCount := len(fileResp.Responses)
	if pageCount == 0 {
		return nil, ErrEmptyDocument
	}
	if pageCount > visionMaxPages {
		return nil, ErrTooManyPages
	}

	var text strings.Builder
	var confidenceSum float32
	var confidenceCount int

	for idx, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", idx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if idx > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(page.FullTextAnnotation.Text)

		for _, annotation := range page.TextAnnotations {
			if annotation.Confidence > 0 {
				confidenceSum += annotation.Confidence
				confidenceCount++
			}
		}
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, ErrEmptyDocument
	}

	var confidence float32
	if confidenceCount > 0 {
		confidence = confidenceSum / float32(confidenceCount)
	}

	return &Result{
		Text:       extracted,
		PageCount:  pageCount,
		Source:     SourceVision,
		Confidence: confidence,
	}, nil
}

// Close closes the underlying Vision client.
func (v *VisionExtractor) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
