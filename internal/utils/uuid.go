package utils

import "github.com/gofrs/uuid"

func IsValidUUID(s string) bool {
	_, err := uuid.FromString(s)
	return err == nil
}
