package layout

import "errors"

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient message for the user.
type Notice struct {
	Level NoticeLevel
	Title string
	Text  string
}

func info(title, text string) Notice    { return Notice{Level: NoticeInfo, Title: title, Text: text} }
func success(title, text string) Notice { return Notice{Level: NoticeSuccess, Title: title, Text: text} }
func warning(title, text string) Notice { return Notice{Level: NoticeWarning, Title: title, Text: text} }
func failure(title, text string) Notice { return Notice{Level: NoticeError, Title: title, Text: text} }

// userMessager is implemented by errors that carry a server-provided
// message fit for display.
type userMessager interface {
	UserMessage() string
}

// ErrorText picks the message to show for err, falling back when the error
// carries nothing readable.
func ErrorText(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// NoticeFor turns a store error into the notice shown for it.
func NoticeFor(err error) Notice {
	switch {
	case errors.Is(err, ErrNoAreaSelected):
		return info("Action required", "Select an area first to add a seat.")
	case errors.Is(err, ErrEditModeOff):
		return info("Not allowed", "Turn on edit mode first (press e).")
	case errors.Is(err, ErrAreaMarked):
		return warning("Not allowed", "That area is marked for deletion. Restore it first.")
	case errors.Is(err, ErrSaveInFlight):
		return info("Please wait", "A save is in progress.")
	case errors.Is(err, ErrUnknownArea):
		return failure("Error", "The selected area no longer exists.")
	case errors.Is(err, ErrUnknownSeat):
		return failure("Error", "The selected seat no longer exists.")
	case errors.Is(err, ErrNotDragging):
		return info("Drag", "Nothing is being dragged.")
	case err == nil:
		return Notice{}
	default:
		return failure("Error", err.Error())
	}
}
