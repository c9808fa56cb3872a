//go:build !cgo

package graphindex

import "errors"

// ErrKuzuUnavailable is returned when the binary was built without cgo.
var ErrKuzuUnavailable = errors.New("graphindex: kuzu backend requires a cgo build")

func openKuzu() (Store, error) {
	return nil, ErrKuzuUnavailable
}
