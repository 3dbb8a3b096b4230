// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// barProgress shows enrichment progress as a terminal bar.
type barProgress struct {
	w   io.Writer
	bar *pb.ProgressBar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{w: w}
}

func (p *barProgress) Start(total int) {
	p.bar = pb.Full.New(total)
	p.bar.SetWriter(p.w)
	p.bar.Set(pb.CleanOnFinish, true)
	p.bar.Start()
}

func (p *barProgress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
