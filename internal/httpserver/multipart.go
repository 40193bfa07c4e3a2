package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"dumbserve/internal/files"
)

// multipartSource feeds a streaming multipart body to files.Service.Upload
// one part at a time. Parse failures are reported as errMalformedBody.
type multipartSource struct {
	mr   *multipart.Reader
	prev *multipart.Part
}

func newMultipartSource(mr *multipart.Reader) *multipartSource {
	return &multipartSource{mr: mr}
}

func (m *multipartSource) NextPart() (files.Part, error) {
	if m.prev != nil {
		_ = m.prev.Close()
		m.prev = nil
	}
	p, err := m.mr.NextPart()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	m.prev = p
	return &multipartPart{p: p}, nil
}

func (m *multipartSource) Close() error {
	if m.prev != nil {
		return m.prev.Close()
	}
	return nil
}

type multipartPart struct {
	p *multipart.Part
}

// FileName is already reduced to its base name by mime/multipart.
func (m *multipartPart) FileName() string { return m.p.FileName() }

func (m *multipartPart) Read(b []byte) (int, error) {
	n, err := m.p.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return n, err
}
