package service

import (
	"strings"

	"github.com/gatehousehq/gatehouse/internal/domain/key"
)

func lower(s string) string { return strings.ToLower(s) }

func newLowerKey(typestr, name string) key.Entity {
	return key.New(typestr, name)
}
