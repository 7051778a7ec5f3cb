package model

import (
	"github.com/pkg/errors"
)

var (
	ErrConfig        = errors.New("configuration error")
	ErrNotFound      = errors.New("object not found")
	ErrAlreadyExists = errors.New("object already exists")
	ErrUpstream      = errors.New("upstream API error")
	ErrInvalidRow    = errors.New("invalid row")
)
