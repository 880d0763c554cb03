package dispatch

// User-facing replies.
const (
	MsgWelcome         = "Send any any command from the list and let the fun begin!"
	MsgPromptSegment   = "Please send the image you want to segment."
	MsgPromptSaltPep   = "Please send the image to add salt & pepper noise."
	MsgPromptRotate    = "Please send the image to rotate."
	MsgPromptConcat    = "Please send the first image to concatenate."
	MsgPromptContour   = "Please send the image to contour."
	MsgPromptDetect    = "Send an image to detect objects using YOLO."
	MsgConcatSecond    = "Great. Now send the second image."
	MsgProcessingError = "Something went wrong while processing the image. Please try again later."
	MsgConcatRestart   = "Oops! Something went wrong. Start over with /concat."
	MsgCommandFirst    = "Bro are you kidding? you have to use a command first!"
	MsgStillWaiting    = "Still waiting for you to send the right thing!"
	MsgUseCommand      = "Bro if you want me to be useful use a command!"

	msgErrorFmt          = "Error: %s"
	msgDetectionErrorFmt = "Error during detection: %s"
	msgDetectedFmt       = "Detected %d object(s): %s"
)
