package validation

import (
	"fmt"
	"regexp"
)

// RoomIDPattern определяет допустимый формат идентификатора комнаты.
// Идентификатор попадает в URL и в ключи Redis, поэтому набор символов
// ограничен: буквы, цифры, дефис, нижнее подчеркивание, 1-64 символа.
var RoomIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateRoomID проверяет идентификатор комнаты
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id cannot be empty")
	}

	if !RoomIDPattern.MatchString(roomID) {
		return fmt.Errorf("room id can only contain letters, numbers, hyphens and underscores (max 64 characters)")
	}

	return nil
}
