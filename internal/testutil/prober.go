// Package testutil provides fakes for package tests.
package testutil

import "errors"

// FakeProber is a MediaProber that returns canned values, with optional
// per-path failures to simulate undecodable files.
type FakeProber struct {
	Duration  float64
	Thumbnail []byte
	// FailPaths marks paths that should fail probing.
	FailPaths map[string]bool
}

// NewFakeProber returns a prober with usable defaults.
func NewFakeProber() *FakeProber {
	return &FakeProber{
		Duration:  90.5,
		Thumbnail: []byte("fake-jpeg-bytes"),
		FailPaths: make(map[string]bool),
	}
}

var errNotMedia = errors.New("not decodable media")

// ProbeDuration implements library.MediaProber.
func (p *FakeProber) ProbeDuration(path string) (float64, error) {
	if p.FailPaths[path] {
		return 0, errNotMedia
	}
	return p.Duration, nil
}

// CaptureThumbnail implements library.MediaProber.
func (p *FakeProber) CaptureThumbnail(path string) ([]byte, error) {
	if p.FailPaths[path] {
		return nil, errNotMedia
	}
	return p.Thumbnail, nil
}
