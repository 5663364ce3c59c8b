package line

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type storedImage struct {
	data []byte
	at   time.Time
}

// ImageStore keeps rendered charts in memory long enough for LINE to fetch them.
type ImageStore struct {
	mu     sync.Mutex
	images map[string]storedImage
	ttl    time.Duration
	now    func() time.Time
}

func NewImageStore(ttl time.Duration) *ImageStore {
	return &ImageStore{images: make(map[string]storedImage), ttl: ttl, now: time.Now}
}

// Put stores a PNG and returns its unguessable file name.
func (s *ImageStore) Put(data []byte) string {
	name := uuid.NewString() + ".png"
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.images[name] = storedImage{data: data, at: s.now()}
	return name
}

// Get returns a live image.
func (s *ImageStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[name]
	if !ok || s.now().Sub(img.at) > s.ttl {
		return nil, false
	}
	return img.data, true
}

func (s *ImageStore) evictLocked() {
	for name, img := range s.images {
		if s.now().Sub(img.at) > s.ttl {
			delete(s.images, name)
		}
	}
}

// ServeImage handles GET /image/{name}.
func (s *ImageStore) ServeImage(w http.ResponseWriter, r *http.Request) {
	data, ok := s.Get(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
