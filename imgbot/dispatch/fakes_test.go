package dispatch

import (
	"context"
	"errors"
	"sync"
)

type sent struct {
	kind    string // text, reply, photo
	chatID  int64
	body    string
	replyTo int
}

type fakeChat struct {
	mu          sync.Mutex
	sent        []sent
	downloads   []string
	downloadErr error
	photoErr    error
}

func (f *fakeChat) record(s sent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
}

func (f *fakeChat) SendText(_ context.Context, chatID int64, text string) error {
	f.record(sent{kind: "text", chatID: chatID, body: text})
	return nil
}

func (f *fakeChat) SendTextReplying(_ context.Context, chatID int64, text string, replyTo int) error {
	f.record(sent{kind: "reply", chatID: chatID, body: text, replyTo: replyTo})
	return nil
}

func (f *fakeChat) SendPhoto(_ context.Context, chatID int64, pathOrURL string) error {
	if f.photoErr != nil {
		return f.photoErr
	}
	f.record(sent{kind: "photo", chatID: chatID, body: pathOrURL})
	return nil
}

func (f *fakeChat) DownloadPhoto(_ context.Context, ev Event) (string, error) {
	if ev.Photo == nil {
		return "", ErrNotAPhoto
	}
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	path := "photos/" + ev.Photo.FileID + ".jpg"
	f.mu.Lock()
	f.downloads = append(f.downloads, path)
	f.mu.Unlock()
	return path, nil
}

func (f *fakeChat) messages(chatID int64) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sent {
		if s.chatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeChat) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

type fakeImages struct {
	mu        sync.Mutex
	ops       []string
	loadErr   error
	concatErr error
}

func (f *fakeImages) Load(path string) (Image, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &fakeImage{path: path, owner: f}, nil
}

func (f *fakeImages) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *fakeImages) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

type fakeImage struct {
	path  string
	owner *fakeImages
}

func (i *fakeImage) Segment() error       { i.owner.record("segment " + i.path); return nil }
func (i *fakeImage) Rotate() error        { i.owner.record("rotate " + i.path); return nil }
func (i *fakeImage) Contour() error       { i.owner.record("contour " + i.path); return nil }
func (i *fakeImage) SaltAndPepper() error { i.owner.record("salt_n_pepper " + i.path); return nil }

func (i *fakeImage) Concat(other Image) error {
	o, ok := other.(*fakeImage)
	if !ok {
		return errors.New("foreign image")
	}
	if i.owner.concatErr != nil {
		return i.owner.concatErr
	}
	i.owner.record("concat " + i.path + " " + o.path)
	return nil
}

func (i *fakeImage) Save() (string, error) {
	return i.path + ".out.jpg", nil
}

type fakeDetector struct {
	mu     sync.Mutex
	calls  []string
	result Detection
	err    error
}

func (f *fakeDetector) Detect(_ context.Context, path string) (Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	return f.result, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (f *fakeRecorder) Record(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type harness struct {
	d        *Dispatcher
	store    Store
	chat     *fakeChat
	images   *fakeImages
	detector *fakeDetector
	recorder *fakeRecorder
	removed  []string
}

func newHarness() *harness {
	h := &harness{
		store:    NewStore(nil),
		chat:     &fakeChat{},
		images:   &fakeImages{},
		detector: &fakeDetector{},
		recorder: &fakeRecorder{},
	}
	var mu sync.Mutex
	actions := ImageActions(Deps{
		Store:    h.store,
		Chat:     h.chat,
		Images:   h.images,
		Detector: h.detector,
		Cleanup: func(paths ...string) {
			mu.Lock()
			defer mu.Unlock()
			h.removed = append(h.removed, paths...)
		},
	})
	d, err := New(Options{
		Store:       h.store,
		Chat:        h.chat,
		Actions:     actions,
		BotUsername: "imgbot",
		Recorder:    h.recorder,
	})
	if err != nil {
		panic(err)
	}
	h.d = d
	return h
}

func text(chatID int64, body string) Event {
	return Event{ChatID: chatID, MessageID: 1, Text: body}
}

func photo(chatID int64, fileID string) Event {
	return Event{ChatID: chatID, MessageID: 2, Photo: &Photo{FileID: fileID}}
}
