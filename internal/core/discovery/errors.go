package discovery

import "errors"

var (
	ErrUnsupportedDeviceType = errors.New("device type not supported")
	ErrUnknownCommand        = errors.New("unknown command")
	ErrInvalidTopic          = errors.New("invalid command topic")
	ErrUnexpectedPayload     = errors.New("unexpected discovery payload")
)
