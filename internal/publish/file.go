package publish

import (
	"context"
	"fmt"
	"os"
)

// FilePublisher writes artifacts to the local filesystem. It is the
// default sink and the fallback when the blob sink cannot be built.
type FilePublisher struct {
	names Names
}

// NewFilePublisher returns a publisher writing the given names in the
// current working directory.
func NewFilePublisher(names Names) *FilePublisher {
	return &FilePublisher{names: names}
}

func (p *FilePublisher) PublishJSON(_ context.Context, content string) error {
	return writeFile(p.names.JSON, []byte(content))
}

func (p *FilePublisher) PublishHTML(_ context.Context, content string) error {
	return writeFile(p.names.HTML, []byte(content))
}

func (p *FilePublisher) PublishPNG(_ context.Context, content []byte) error {
	return writeFile(p.names.PNG, content)
}

func (p *FilePublisher) PublishLastError(_ context.Context, content string) error {
	return writeFile(p.names.LastError, []byte(content))
}

func writeFile(name string, data []byte) error {
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("publish: write %s: %w", name, err)
	}
	return nil
}
