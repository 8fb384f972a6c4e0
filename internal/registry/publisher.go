package registry

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Publisher receives registration lifecycle notifications. Drivers that
// mirror transceiver identity into an external registry (e.g. an IS-04
// node API) implement this; the connection core itself never requires
// one.
type Publisher interface {
	SenderRegistered(id string)
	SenderUnregistered(id string)
	ReceiverRegistered(id string)
	ReceiverUnregistered(id string)
}

// NullPublisher discards every notification.
type NullPublisher struct{}

func (NullPublisher) SenderRegistered(string)    {}
func (NullPublisher) SenderUnregistered(string)  {}
func (NullPublisher) ReceiverRegistered(string)   {}
func (NullPublisher) ReceiverUnregistered(string) {}

// LoggingPublisher logs each lifecycle event at debug level; useful
// during development before a real node-API publisher is wired in.
type LoggingPublisher struct {
	Log zerolog.Logger
}

// NewLoggingPublisher returns a LoggingPublisher writing to the package
// default logger.
func NewLoggingPublisher() LoggingPublisher {
	return LoggingPublisher{Log: log.Logger.With().Str("component", "registry").Logger()}
}

func (p LoggingPublisher) SenderRegistered(id string) {
	p.Log.Debug().Str("id", id).Msg("sender registered")
}

func (p LoggingPublisher) SenderUnregistered(id string) {
	p.Log.Debug().Str("id", id).Msg("sender unregistered")
}

func (p LoggingPublisher) ReceiverRegistered(id string) {
	p.Log.Debug().Str("id", id).Msg("receiver registered")
}

func (p LoggingPublisher) ReceiverUnregistered(id string) {
	p.Log.Debug().Str("id", id).Msg("receiver unregistered")
}
