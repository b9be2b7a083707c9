package clanbattledb

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("clanbattle: record not found")
	// ErrNoRowsAffected is returned when a conditional update matched nothing.
	ErrNoRowsAffected = errors.New("clanbattle: no rows affected")
	// ErrActiveAttackExists is returned when the one-open-declaration index rejects an insert.
	ErrActiveAttackExists = errors.New("clanbattle: member already has an active attack")
)
