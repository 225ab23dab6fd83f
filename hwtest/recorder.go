// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"strconv"

	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/target"
)

// Recorder is a target.Interface that records everything it receives.
//
type Recorder struct {
	Outputs  map[target.VId]*bits.Bits
	Displays []string
	Writes   []string
	Finished bool
	Code     int
	// Events lists displays, writes and finish requests in arrival order as
	// "display: text", "write: text" and "finish: code".
	Events []string
}

// NewRecorder returns an empty Recorder.
//
func NewRecorder() *Recorder {
	return &Recorder{Outputs: make(map[target.VId]*bits.Bits)}
}

// Output implements target.Interface.
//
func (r *Recorder) Output(vid target.VId, v *bits.Bits) {
	r.Outputs[vid] = v.Clone()
}

// Display implements target.Interface.
//
func (r *Recorder) Display(s string) {
	r.Displays = append(r.Displays, s)
	r.Events = append(r.Events, "display: "+s)
}

// Write implements target.Interface.
//
func (r *Recorder) Write(s string) {
	r.Writes = append(r.Writes, s)
	r.Events = append(r.Events, "write: "+s)
}

// Finish implements target.Interface.
//
func (r *Recorder) Finish(code int) {
	r.Finished = true
	r.Code = code
	r.Events = append(r.Events, "finish: "+strconv.Itoa(code))
}

// Reset clears all recorded data.
//
func (r *Recorder) Reset() {
	*r = *NewRecorder()
}
