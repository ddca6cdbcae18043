package models

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func SuccessFlash(msg string) Flash { return Flash{Category: FlashSuccess, Message: msg} }

func ErrorFlash(msg string) Flash { return Flash{Category: FlashError, Message: msg} }
