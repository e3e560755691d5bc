package issue

import (
	"strconv"
	"strings"
)

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinKey appends an object key to a JSON Pointer.
func JoinKey(base, key string) string {
	return base + "/" + jsonPointerEscaper.Replace(key)
}

// JoinIndex appends an array index to a JSON Pointer.
func JoinIndex(base string, i int) string {
	return base + "/" + strconv.Itoa(i)
}
