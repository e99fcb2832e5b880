package server

import "github.com/rs/zerolog"

// Mailer delivers account emails: verification links and reset codes.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.logger.Info().Str("to", to).Str("subject", subject).Msg(body)
	return nil
}
