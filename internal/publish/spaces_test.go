package publish

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/tsawler/ttcsv/internal/config"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-001122334455")

	tests := []struct {
		variant, source, ext string
		want                 string
	}{
		{"goa", "/tmp/uploads/Goa TT 2025.pdf", ".csv", "goa/Goa_TT_2025-6f1c2d3e-4a5b-4c6d-8e7f-001122334455.csv"},
		{"pilani", "coursewise.pdf", ".html", "pilani/coursewise-6f1c2d3e-4a5b-4c6d-8e7f-001122334455.html"},
		{"timetable", "", ".csv", "timetable/upload-6f1c2d3e-4a5b-4c6d-8e7f-001122334455.csv"},
	}

	for _, tt := range tests {
		if got := ObjectKey(tt.variant, tt.source, id, tt.ext); got != tt.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tt.variant, tt.source, got, tt.want)
		}
	}
}

func TestUpload(t *testing.T) {
	api := &fakeS3{}
	c := newClient(api, "timetables", "https://blr1.digitaloceanspaces.com", "")

	url, err := c.Upload(context.Background(), "goa/a.csv", []byte("x,y\n"), "text/csv")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "https://timetables.blr1.digitaloceanspaces.com/goa/a.csv" {
		t.Errorf("url = %q", url)
	}
	if aws.StringValue(api.input.Bucket) != "timetables" || aws.StringValue(api.input.ContentType) != "text/csv" {
		t.Errorf("input = %+v", api.input)
	}
	if string(api.body) != "x,y\n" {
		t.Errorf("body = %q", api.body)
	}
}

func TestUploadCDN(t *testing.T) {
	c := newClient(&fakeS3{}, "b", "blr1.digitaloceanspaces.com", "https://cdn.example.test/")
	if got := c.URL("k.csv"); got != "https://cdn.example.test/k.csv" {
		t.Errorf("URL() = %q", got)
	}
}

func TestUploadError(t *testing.T) {
	boom := errors.New("access denied")
	c := newClient(&fakeS3{err: boom}, "b", "e", "")
	if _, err := c.Upload(context.Background(), "k", nil, "text/csv"); !errors.Is(err, boom) {
		t.Errorf("Upload() error = %v, want %v", err, boom)
	}
}

func TestNewSpacesClientNeedsBucket(t *testing.T) {
	if _, err := NewSpacesClient(config.Spaces{Region: "blr1"}); err == nil {
		t.Error("expected error without bucket")
	}
}
