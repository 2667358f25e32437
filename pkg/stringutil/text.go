// Package stringutil provides some string based helpers.
package stringutil

import (
	"crypto/rand"
	"math/big"

	"github.com/microcosm-cc/bluemonday"
)

// SanitizeText strips all markup from untrusted user supplied text. Notification
// messages are rendered verbatim by clients, so nothing beyond plain text is allowed
// through.
func SanitizeText(body string) string {
	return bluemonday.StrictPolicy().Sanitize(body)
}

func SecureRandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-"

	ret := make([]byte, n)

	for currentChar := range n {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return ""
		}

		ret[currentChar] = letters[num.Int64()]
	}

	return string(ret)
}
