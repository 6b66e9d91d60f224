// Package ident generates chat and message identifiers.
package ident

import (
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

const messageSuffixLen = 8

// NewChatID returns a chat identifier embedding the creation time in
// milliseconds, so a lexical or numeric sort of ids approximates
// chronological order.
func NewChatID() string {
	return fmt.Sprintf("chat_%d", time.Now().UnixMilli())
}

// NewMessageID returns a message identifier combining the current time
// with a random suffix, unique even for messages created within the
// same millisecond.
func NewMessageID() string {
	suffix := shortuuid.New()
	if len(suffix) > messageSuffixLen {
		suffix = suffix[:messageSuffixLen]
	}
	return fmt.Sprintf("msg_%d_%s", time.Now().UnixMilli(), suffix)
}
