package dispatch

import (
	"context"
	"time"

	"github.com/m3rciful/imgbot/core/telegram/state"
)

// Pending actions a chat can be in. PendingNone means no command is in progress.
const (
	PendingNone         = state.StateIdle
	PendingSegment      state.State = "awaiting_segment_photo"
	PendingSaltPepper   state.State = "awaiting_salt_pepper_photo"
	PendingRotate       state.State = "awaiting_rotate_photo"
	PendingContour      state.State = "awaiting_contour_photo"
	PendingConcatFirst  state.State = "awaiting_concat_photo_1"
	PendingConcatSecond state.State = "awaiting_concat_photo_2"
	PendingDetect       state.State = "awaiting_detect_photo"
)

// Photo references a photo attachment on the chat platform.
type Photo struct {
	FileID   string
	UniqueID string
	Width    int
	Height   int
}

// Event is one inbound chat message. Photo is nil for text messages.
type Event struct {
	ChatID    int64
	MessageID int
	Text      string
	Caption   string
	Photo     *Photo
}

// IsPhoto reports whether the event carries a photo attachment.
func (e Event) IsPhoto() bool {
	return e.Photo != nil
}

// ChatClient sends replies and fetches attachments on the chat platform.
type ChatClient interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTextReplying(ctx context.Context, chatID int64, text string, replyTo int) error
	// SendPhoto sends a local file path or an http(s) URL.
	SendPhoto(ctx context.Context, chatID int64, pathOrURL string) error
	// DownloadPhoto stores the event's photo locally and returns its path.
	// It fails with ErrNotAPhoto when the event has no photo.
	DownloadPhoto(ctx context.Context, ev Event) (string, error)
}

// Image is a loaded image that is transformed in place and saved to a new file.
type Image interface {
	Segment() error
	Rotate() error
	Contour() error
	SaltAndPepper() error
	// Concat appends other to the right of the image. Mismatched heights fail
	// with an error wrapping ErrInvalidImage.
	Concat(other Image) error
	Save() (string, error)
}

// ImageLoader opens images from local paths.
type ImageLoader interface {
	Load(path string) (Image, error)
}

// Detection is the result of an object detection call.
type Detection struct {
	Labels            []string
	Count             int
	PredictedImageURL string
}

// Detector runs object detection on a local image.
type Detector interface {
	Detect(ctx context.Context, path string) (Detection, error)
}

// Entry describes one finished pending-action handler run.
type Entry struct {
	ChatID   int64
	Action   string
	Outcome  string
	Detail   string
	Duration time.Duration
}

// Recorder persists handler outcomes. Failures are logged and never reach the user.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// NopRecorder discards entries.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Entry) error { return nil }

// Outcomes stored in journal entries and metrics.
const (
	OutcomeOK       = "ok"
	OutcomeFail     = "fail"
	OutcomeRejected = "rejected"
)
