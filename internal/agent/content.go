package agent

import (
	"errors"
	"fmt"

	"go.klb.dev/clipbridge/internal/filetype"
)

// ErrTooLarge stands in for allocation failure: the requested buffer is
// empty or larger than Options.MaxContent.
var ErrTooLarge = errors.New("clipboard buffer allocation refused")

// Content is a clipboard payload owned by the agent. Data always has one
// byte past Len for the terminator.
type Content struct {
	Data        []byte
	Len         int
	WriteOffset int
	FileType    filetype.Type
}

func newContent(size int, ft filetype.Type, max int) (*Content, error) {
	if size <= 0 || size > max {
		return nil, fmt.Errorf("%d bytes (max %d): %w", size, max, ErrTooLarge)
	}
	return &Content{
		Data:     make([]byte, size+1),
		Len:      size,
		FileType: ft,
	}, nil
}

// Bytes returns the payload without the terminator.
func (c *Content) Bytes() []byte { return c.Data[:c.Len] }

func (c *Content) terminate() { c.Data[c.Len] = 0 }

// truncate shrinks Len to n and restores the terminator.
func (c *Content) truncate(n int) {
	c.Len = n
	c.Data = c.Data[:n+1]
	if c.WriteOffset > n {
		c.WriteOffset = n
	}
	c.terminate()
}
