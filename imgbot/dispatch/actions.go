package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/core/telegram/state"
)

// Deps are the collaborators used by the image-processing action table.
type Deps struct {
	Store    Store
	Chat     ChatClient
	Images   ImageLoader
	Detector Detector
	// Cleanup removes transient files once a chat no longer needs them. Optional.
	Cleanup func(paths ...string)
}

type imageActions struct {
	Deps
}

// ImageActions returns the command and status handlers of the image-processing bot.
func ImageActions(deps Deps) Actions {
	if deps.Cleanup == nil {
		deps.Cleanup = func(...string) {}
	}
	h := &imageActions{Deps: deps}
	return Actions{
		Commands: []Command{
			{Name: "start", Description: "Start the fun", Handle: h.start},
			{Name: "segment", Description: "Segment an image", Handle: h.prompt(PendingSegment, MsgPromptSegment)},
			{Name: "concat", Description: "Concatenates two images", Handle: h.prompt(PendingConcatFirst, MsgPromptConcat)},
			{Name: "salt_n_pepper", Description: "Adds salt and pepper to the image", Handle: h.prompt(PendingSaltPepper, MsgPromptSaltPep)},
			{Name: "rotate", Description: "Rotates an image clockwise", Handle: h.prompt(PendingRotate, MsgPromptRotate)},
			{Name: "contour", Description: "Contours an image", Handle: h.prompt(PendingContour, MsgPromptContour)},
			{Name: "detect", Description: "Detect objects with YOLO", Handle: h.prompt(PendingDetect, MsgPromptDetect)},
		},
		Status: map[state.State]StatusFunc{
			PendingSegment:      h.transform("segment", Image.Segment),
			PendingSaltPepper:   h.transform("salt_n_pepper", Image.SaltAndPepper),
			PendingRotate:       h.transform("rotate", Image.Rotate),
			PendingContour:      h.transform("contour", Image.Contour),
			PendingConcatFirst:  h.concatFirst,
			PendingConcatSecond: h.concatSecond,
			PendingDetect:       h.detect,
		},
	}
}

func (h *imageActions) start(ctx context.Context, ev Event) error {
	return h.Chat.SendText(ctx, ev.ChatID, MsgWelcome)
}

// prompt sets the pending action and asks for the photo. Any half-finished
// concat is abandoned.
func (h *imageActions) prompt(p state.State, text string) CommandFunc {
	return func(ctx context.Context, ev Event) error {
		if first, ok := h.Store.FirstImage(ev.ChatID); ok {
			h.Store.ClearFirstImage(ev.ChatID)
			h.Cleanup(first)
		}
		h.Store.SetPending(ev.ChatID, p)
		return h.Chat.SendText(ctx, ev.ChatID, text)
	}
}

func (h *imageActions) download(ctx context.Context, ev Event) (string, error) {
	if !ev.IsPhoto() {
		return "", newError(KindInput, "download", ErrNotAPhoto)
	}
	path, err := h.Chat.DownloadPhoto(ctx, ev)
	if err != nil {
		if errors.Is(err, ErrNotAPhoto) {
			return "", newError(KindInput, "download", err)
		}
		return "", newError(KindDownload, "download", err)
	}
	return path, nil
}

func (h *imageActions) load(path string) (Image, error) {
	img, err := h.Images.Load(path)
	if err != nil {
		return nil, newError(KindTransform, "load", err)
	}
	return img, nil
}

func (h *imageActions) save(op string, img Image) (string, error) {
	out, err := img.Save()
	if err != nil {
		return "", newError(KindTransform, op, err)
	}
	return out, nil
}

// transform runs a single-image operation and sends the result back.
func (h *imageActions) transform(op string, apply func(Image) error) StatusFunc {
	return func(ctx context.Context, ev Event) (state.State, error) {
		in, err := h.download(ctx, ev)
		if err != nil {
			return PendingNone, h.replyFailure(ctx, ev, err)
		}
		defer h.Cleanup(in)

		img, err := h.load(in)
		if err != nil {
			return PendingNone, h.replyFailure(ctx, ev, err)
		}
		if err := apply(img); err != nil {
			return PendingNone, h.replyFailure(ctx, ev, newError(KindTransform, op, err))
		}
		out, err := h.save(op, img)
		if err != nil {
			return PendingNone, h.replyFailure(ctx, ev, err)
		}
		defer h.Cleanup(out)
		return PendingNone, h.sendResult(ctx, ev, out)
	}
}

func (h *imageActions) concatFirst(ctx context.Context, ev Event) (state.State, error) {
	path, err := h.download(ctx, ev)
	if err != nil {
		return PendingNone, h.replyFailure(ctx, ev, err)
	}
	h.Store.SetFirstImage(ev.ChatID, path)
	if err := h.Chat.SendText(ctx, ev.ChatID, MsgConcatSecond); err != nil {
		return PendingConcatSecond, err
	}
	return PendingConcatSecond, nil
}

func (h *imageActions) concatSecond(ctx context.Context, ev Event) (state.State, error) {
	first, ok := h.Store.FirstImage(ev.ChatID)
	if !ok {
		sendErr := h.Chat.SendText(ctx, ev.ChatID, MsgConcatRestart)
		return PendingNone, errors.Join(newError(KindInput, "concat", ErrNoFirstImage), sendErr)
	}
	h.Store.ClearFirstImage(ev.ChatID)
	defer h.Cleanup(first)

	second, err := h.download(ctx, ev)
	if err != nil {
		return PendingNone, h.replyFailure(ctx, ev, err)
	}
	defer h.Cleanup(second)

	left, err := h.load(first)
	if err != nil {
		return PendingNone, h.replyFailure(ctx, ev, err)
	}
	right, err := h.load(second)
	if err != nil {
		return PendingNone, h.replyFailure(ctx, ev, err)
	}
	if err := left.Concat(right); err != nil {
		return PendingNone, h.replyFailure(ctx, ev, newError(KindTransform, "concat", err))
	}
	out, err := h.save("concat", left)
	if err != nil {
		return PendingNone, h.replyFailure(ctx, ev, err)
	}
	defer h.Cleanup(out)
	return PendingNone, h.sendResult(ctx, ev, out)
}

func (h *imageActions) detect(ctx context.Context, ev Event) (state.State, error) {
	path, err := h.download(ctx, ev)
	if err != nil {
		return PendingNone, h.replyDetectionFailure(ctx, ev, err)
	}
	defer h.Cleanup(path)

	res, err := h.Detector.Detect(ctx, path)
	if err != nil {
		return PendingNone, h.replyDetectionFailure(ctx, ev, newError(KindDetection, "detect", err))
	}
	labels, _ := logger.SummarizeStrings(res.Labels, 10)
	logger.Info(ctx, "detect", "detect.result",
		slog.Int("count", res.Count),
		slog.String("labels", labels),
		slog.Bool("photo", res.PredictedImageURL != ""),
	)

	summary := fmt.Sprintf(msgDetectedFmt, res.Count, strings.Join(res.Labels, ", "))
	if res.PredictedImageURL == "" {
		return PendingNone, h.Chat.SendText(ctx, ev.ChatID, summary)
	}
	if err := h.Chat.SendPhoto(ctx, ev.ChatID, res.PredictedImageURL); err != nil {
		logger.Warn(ctx, "dispatch", "detect.photo_fallback",
			slog.String("err", err.Error()),
		)
		return PendingNone, h.Chat.SendText(ctx, ev.ChatID, summary)
	}
	return PendingNone, nil
}

func (h *imageActions) sendResult(ctx context.Context, ev Event, path string) error {
	if err := h.Chat.SendPhoto(ctx, ev.ChatID, path); err != nil {
		return errors.Join(err, h.Chat.SendTextReplying(ctx, ev.ChatID, MsgProcessingError, ev.MessageID))
	}
	return nil
}

// replyFailure answers a failed transform and returns err joined with any send error.
// Validation failures show their detail; everything else gets the generic text.
func (h *imageActions) replyFailure(ctx context.Context, ev Event, err error) error {
	text := MsgProcessingError
	if errors.Is(err, ErrInvalidImage) {
		text = fmt.Sprintf(msgErrorFmt, detail(err))
	}
	return errors.Join(err, h.Chat.SendTextReplying(ctx, ev.ChatID, text, ev.MessageID))
}

func (h *imageActions) replyDetectionFailure(ctx context.Context, ev Event, err error) error {
	text := fmt.Sprintf(msgDetectionErrorFmt, detail(err))
	return errors.Join(err, h.Chat.SendTextReplying(ctx, ev.ChatID, text, ev.MessageID))
}
