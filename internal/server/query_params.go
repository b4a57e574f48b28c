package server

import "strings"

const dateOnlyLayout = "2006-01-02"

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
