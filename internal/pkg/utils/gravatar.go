package utils

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// AvatarURL is the Gravatar image of a customer's email address, shown in
// the admin user list. Sizes outside 1..2048 fall back to 200 pixels.
func AvatarURL(email string, size int) string {
	if size < 1 || size > 2048 {
		size = 200
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	q := url.Values{}
	q.Set("s", strconv.Itoa(size))
	q.Set("d", "mp")
	return gravatarBase + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}
