package models

import "time"

// DateLayout is the storage and wire format of a session date.
const DateLayout = "2006-01-02"

const (
	// DefaultSessionLength длительность одной менторской сессии
	DefaultSessionLength = 60 * time.Minute

	// DefaultMaxWeeksAhead насколько далеко вперёд можно бронировать
	DefaultMaxWeeksAhead = 12

	// DefaultSlotCacheTTL время жизни кэша слотов ментора
	DefaultSlotCacheTTL = 5 * time.Minute

	// StudentRateLimit количество попыток бронирования в окне
	StudentRateLimit = 10

	// StudentRateWindow окно ограничения попыток бронирования
	StudentRateWindow = time.Minute

	// NotificationQueueSize размер очереди уведомлений
	NotificationQueueSize = 256

	// DefaultSweepInterval период проверки завершившихся сессий
	DefaultSweepInterval = 5 * time.Minute

	// MaxTopicLength максимальная длина темы сессии
	MaxTopicLength = 500
)
