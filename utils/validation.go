package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"webchat/apperrors"
	"webchat/services/chat"
)

const (
	GroupNameMin = 2
	GroupNameMax = 64
)

var (
	userIDRegex = regexp.MustCompile(`^[1-9][0-9]{0,17}$`)
)

// ValidateGroupName trims name and checks its length in characters
func ValidateGroupName(name string) (string, *apperrors.AppError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidationError("请输入群名称")
	}

	if n := utf8.RuneCountInString(name); n < GroupNameMin || n > GroupNameMax {
		return "", apperrors.NewValidationError("群名称需要2-64个字符")
	}

	return name, nil
}

// ValidateMembers requires at least one member. Duplicates are dropped, order kept.
func ValidateMembers(members []chat.ID) ([]chat.ID, *apperrors.AppError) {
	if len(members) == 0 {
		return nil, apperrors.NewValidationError("请至少选择一位成员")
	}

	seen := make(map[chat.ID]struct{}, len(members))
	out := make([]chat.ID, 0, len(members))
	for _, id := range members {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// NormalizeMessage trims outgoing message text; blank text is rejected
func NormalizeMessage(content string) (string, *apperrors.AppError) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.NewMessageEmpty()
	}
	return content, nil
}

// ParseUserID accepts a positive decimal user id as typed at sign-in
func ParseUserID(s string) (chat.ID, *apperrors.AppError) {
	s = strings.TrimSpace(s)
	if !userIDRegex.MatchString(s) {
		return 0, apperrors.NewValidationError("Invalid user id")
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("Invalid user id")
	}
	return chat.ID(v), nil
}
