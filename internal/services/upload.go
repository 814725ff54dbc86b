package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/desertthunder/shutter/internal/shared"
	"github.com/h2non/filetype"
)

// ProgressFunc receives bytes sent so far and the total request size.
type ProgressFunc = func(sent, total int64)

// FilePart is one file attached to a multipart request under Field.
type FilePart struct {
	Field string
	Path  string
}

// MultipartForm holds text fields and files for [APIService.SendMultipart].
type MultipartForm struct {
	Fields map[string]string
	Files  []FilePart
}

// DetectMIME sniffs the content type from the file header.
//
// Only images and videos are accepted; anything else wraps [shared.ErrUnsupportedFile].
func DetectMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: %s", shared.ErrUnsupportedFile, filepath.Base(path))
	}
	if !filetype.IsImage(head[:n]) && !filetype.IsVideo(head[:n]) {
		return "", fmt.Errorf("%w: %s (%s)", shared.ErrUnsupportedFile, filepath.Base(path), kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}

// encodeMultipart writes form into a buffer and returns it with its content type.
func encodeMultipart(form MultipartForm) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range form.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, fp := range form.Files {
		mime, err := DetectMIME(fp.Path)
		if err != nil {
			return nil, "", err
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fp.Field, filepath.Base(fp.Path)))
		h.Set("Content-Type", mime)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part: %w", err)
		}

		f, err := os.Open(fp.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", fp.Path, err)
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", fp.Path, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// progressReader reports cumulative bytes read to fn.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Size() int64 { return p.total }

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}

// SendMultipart encodes form and sends it with method, reporting upload progress to progress.
func (a *APIService) SendMultipart(ctx context.Context, method, path string, form MultipartForm, progress ProgressFunc) (*APIResponse, error) {
	buf, contentType, err := encodeMultipart(form)
	if err != nil {
		return nil, err
	}

	body := &progressReader{r: buf, total: int64(buf.Len()), fn: progress}
	return a.Do(ctx, method, path, body, contentType)
}

// PostMultipart is [APIService.SendMultipart] with POST.
func (a *APIService) PostMultipart(ctx context.Context, path string, form MultipartForm, progress ProgressFunc) (*APIResponse, error) {
	return a.SendMultipart(ctx, http.MethodPost, path, form, progress)
}
