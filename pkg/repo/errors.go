package repo

import "errors"

var (
	ErrFormatVersion  = errors.New("repository format version mismatch")
	ErrRepoCreation   = errors.New("repository creation failed")
	ErrRepoNotFound   = errors.New("repository not found")
	ErrAmbiguousRef   = errors.New("ambiguous reference")
	ErrUnknownRef     = errors.New("unknown reference")
	ErrRefCycle       = errors.New("reference cycle")
	ErrNotDirectory   = errors.New("not a directory")
	ErrNotEmpty       = errors.New("directory not empty")
	ErrPathConversion = errors.New("path conversion failed")
	ErrBareRepository = errors.New("operation needs a working tree")
)
