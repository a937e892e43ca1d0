package interaction

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/matzehuels/particula/pkg/errors"
)

// Entry is a sample captured at a point in a session.
type Entry struct {
	At     time.Duration
	Sample Sample
}

type entryJSON struct {
	AtMS  float64 `json:"at_ms"`
	Hands []Hand  `json:"hands"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		AtMS:  float64(e.At) / float64(time.Millisecond),
		Hands: e.Sample.Hands,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.At = time.Duration(raw.AtMS * float64(time.Millisecond))
	e.Sample = Sample{Hands: raw.Hands}
	return nil
}

// Recording is a time-ordered list of samples.
type Recording []Entry

// Duration is the timestamp of the last entry.
func (r Recording) Duration() time.Duration {
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1].At
}

// At returns the latest sample captured at or before t, or nil if t
// precedes the first entry.
func (r Recording) At(t time.Duration) *Sample {
	i := sort.Search(len(r), func(i int) bool { return r[i].At > t })
	if i == 0 {
		return nil
	}
	return &r[i-1].Sample
}

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1 << 20

// LoadRecording reads newline-delimited JSON entries. Blank lines are
// skipped. Entries are sorted by time.
func LoadRecording(r io.Reader) (Recording, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var rec Recording
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSample, err, "recording line %d", line)
		}
		if e.At < 0 {
			return nil, errors.New(errors.ErrCodeInvalidSample, "recording line %d: negative timestamp", line)
		}
		rec = append(rec, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read recording")
	}
	sort.SliceStable(rec, func(i, j int) bool { return rec[i].At < rec[j].At })
	return rec, nil
}

// WriteRecording writes r as newline-delimited JSON.
func WriteRecording(w io.Writer, r Recording) error {
	enc := json.NewEncoder(w)
	for i, e := range r {
		if err := enc.Encode(e); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write recording entry %d", i)
		}
	}
	return nil
}

// RecordingDetector replays a recording, answering each frame with the
// sample captured at the frame's timestamp.
type RecordingDetector struct {
	Recording Recording
	// Loop wraps frame times past the end of the recording.
	Loop bool
}

func (d *RecordingDetector) Detect(ctx context.Context, f Frame) (*Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := f.At
	if dur := d.Recording.Duration(); d.Loop && dur > 0 {
		t %= dur + 1
	}
	return d.Recording.At(t), nil
}
