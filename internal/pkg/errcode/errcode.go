package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrNotFound
	ErrInvalid
	ErrInternal
	ErrSearchUnavailable
	ErrGenerationUnavailable
	ErrCacheUnavailable
)
