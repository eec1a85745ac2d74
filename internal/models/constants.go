package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCheckedIn = "CheckedIn" // renting status assigned by the backend
)

const (
	// DefaultRedisTTL время жизни сессии пользователя в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// ChainsCacheTTL время жизни кэша справочников (сети, отели, сотрудники)
	ChainsCacheTTL = 30 * 60 // 30 минут в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// DefaultPaginationSize размер пагинации результатов поиска
	DefaultPaginationSize = 5

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах
)
