package errors

import "errors"

var (
	ErrInvalid       = errors.New("invalid")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrSearchBackend = errors.New("search backend failure")
	ErrCacheBackend  = errors.New("cache backend failure")
	ErrCacheDecode   = errors.New("cache payload undecodable")
	ErrGeneration    = errors.New("generation backend failure")
	ErrInternal      = errors.New("internal")
)

func IsSearchBackend(err error) bool {
	return errors.Is(err, ErrSearchBackend)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
