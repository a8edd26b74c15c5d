package api

import (
	"sync"

	"github.com/chenBenjamin97/face-detector/pkg/detect"
)

//Face is the JSON form of an accepted detection
type Face struct {
	ClassID    int     `json:"class_id"`
	Confidence float32 `json:"confidence"`
	Left       int     `json:"left"`
	Top        int     `json:"top"`
	Right      int     `json:"right"`
	Bottom     int     `json:"bottom"`
}

//Snapshot is an encoded annotated frame and the detections drawn on it
type Snapshot struct {
	JPEG      []byte  `json:"-"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Threshold float32 `json:"threshold"`
	Faces     []Face  `json:"faces"`
}

//NewSnapshot converts post-processing results into a Snapshot
func NewSnapshot(jpeg []byte, width, height int, threshold float32, results []detect.Result) Snapshot {
	faces := make([]Face, 0, len(results))
	for _, r := range results {
		faces = append(faces, Face{
			ClassID:    int(r.Record.ClassID),
			Confidence: r.Record.Confidence,
			Left:       r.Box.Min.X,
			Top:        r.Box.Min.Y,
			Right:      r.Box.Max.X,
			Bottom:     r.Box.Max.Y,
		})
	}
	return Snapshot{JPEG: jpeg, Width: width, Height: height, Threshold: threshold, Faces: faces}
}

//Source provides the latest snapshot, false while there is none
type Source interface {
	Snapshot() (Snapshot, bool)
}

//Store holds the latest published snapshot and is safe for concurrent use
type Store struct {
	mu    sync.RWMutex
	snap  Snapshot
	ready bool
}

func (s *Store) Publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.ready = true
}

func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.ready
}
