//go:build !linux

package hci

import (
	"errors"
	"time"
)

// Socket is only available on linux.
type Socket struct{}

func NewSocket(id int, readTimeout time.Duration) (*Socket, error) {
	return nil, errors.New("hci user channel requires linux")
}

func (s *Socket) Read(p []byte) (int, error)  { return 0, errors.New("unsupported") }
func (s *Socket) Write(p []byte) (int, error) { return 0, errors.New("unsupported") }
func (s *Socket) Close() error                { return nil }
