package model

type Entity interface {
	Hash() (string, error)
}
