package events

import "errors"

var (
	// ErrPublish возвращается, когда брокер не принял пачку сообщений
	ErrPublish = errors.New("events: failed to publish outbox batch")

	// ErrOutbox возвращается при ошибках чтения или обновления outbox
	ErrOutbox = errors.New("events: outbox storage error")
)
