// Package commandtest provides a Replier that records replies for tests.
package commandtest

import (
	"context"
	"io"
	"sync"
)

// File is a recorded attachment.
type File struct {
	Content string
	Name    string
	Data    []byte
}

// Recorder is a command.Replier that keeps everything sent through it.
type Recorder struct {
	mu       sync.Mutex
	Messages []string
	Files    []File
	Pages    [][]string
	// Err, when set, is returned from every send.
	Err error
}

// Send records a text reply.
func (r *Recorder) Send(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, content)
	return r.Err
}

// SendFile records an attachment, reading it fully.
func (r *Recorder) SendFile(_ context.Context, content, filename string, rd io.Reader) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Files = append(r.Files, File{Content: content, Name: filename, Data: data})
	return r.Err
}

// SendPages records a paginated reply.
func (r *Recorder) SendPages(_ context.Context, _ string, pages []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Pages = append(r.Pages, pages)
	return r.Err
}

// Replies returns the number of replies of any kind.
func (r *Recorder) Replies() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Messages) + len(r.Files) + len(r.Pages)
}

// Last returns the most recent text reply, or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}
