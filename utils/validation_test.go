package utils

import (
	"strings"
	"testing"

	"webchat/apperrors"
	"webchat/services/chat"

	"github.com/stretchr/testify/assert"
)

func TestValidateGroupName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name:  "Valid name",
			input: "项目组",
			want:  "项目组",
		},
		{
			name:  "Trimmed",
			input: "  team  ",
			want:  "team",
		},
		{
			name:    "Empty",
			input:   "",
			wantErr: "请输入群名称",
		},
		{
			name:    "Whitespace only",
			input:   "   ",
			wantErr: "请输入群名称",
		},
		{
			name:    "Too short",
			input:   "a",
			wantErr: "群名称需要2-64个字符",
		},
		{
			name:    "Too short after trim",
			input:   " a ",
			wantErr: "群名称需要2-64个字符",
		},
		{
			name:  "Two CJK characters",
			input: "群聊",
			want:  "群聊",
		},
		{
			name:  "Exactly 64",
			input: strings.Repeat("x", 64),
			want:  strings.Repeat("x", 64),
		},
		{
			name:    "Too long",
			input:   strings.Repeat("x", 65),
			wantErr: "群名称需要2-64个字符",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateGroupName(tt.input)
			if tt.wantErr != "" {
				assert.NotNil(t, err)
				assert.Equal(t, tt.wantErr, err.Message)
				assert.Equal(t, apperrors.ErrCodeValidationFailed, err.Code)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidateMembers(t *testing.T) {
	_, err := ValidateMembers(nil)
	assert.NotNil(t, err)
	assert.Equal(t, "请至少选择一位成员", err.Message)

	got, err := ValidateMembers([]chat.ID{3, 2, 3})
	assert.Nil(t, err)
	assert.Equal(t, []chat.ID{3, 2}, got)
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Plain", input: "hello", want: "hello"},
		{name: "Trimmed", input: "  hi \n", want: "hi"},
		{name: "Empty", input: "", wantErr: true},
		{name: "Whitespace only", input: " \t\n ", wantErr: true},
		{name: "Markup kept verbatim", input: "<b>x</b>", want: "<b>x</b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMessage(tt.input)
			if tt.wantErr {
				assert.NotNil(t, err)
				assert.Equal(t, apperrors.ErrCodeMessageEmpty, err.Code)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		input   string
		want    chat.ID
		wantErr bool
	}{
		{input: "42", want: 42},
		{input: " 7 ", want: 7},
		{input: "0", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
		{input: "<script>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUserID(tt.input)
			if tt.wantErr {
				assert.NotNil(t, err)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
