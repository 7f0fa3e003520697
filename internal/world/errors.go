package world

import "errors"

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrInCombat        = errors.New("character is in combat")
	ErrNotCarried      = errors.New("item not carried")
	ErrNotAWeapon      = errors.New("item is not a weapon")
)
