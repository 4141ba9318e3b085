package denylist

import "strings"

// reserved are usernames that would collide with platform infrastructure or
// well-known hosts when used as a subdomain label.
var reserved = map[string]bool{
	"admin":   true,
	"api":     true,
	"app":     true,
	"billing": true,
	"blog":    true,
	"dev":     true,
	"docs":    true,
	"ftp":     true,
	"help":    true,
	"images":  true,
	"imap":    true,
	"login":   true,
	"mail":    true,
	"metrics": true,
	"news":    true,
	"ns1":     true,
	"ns2":     true,
	"pop":     true,
	"pulsar":  true,
	"root":    true,
	"smtp":    true,
	"staging": true,
	"static":  true,
	"status":  true,
	"support": true,
	"test":    true,
	"webmail": true,
	"www":     true,
}

// IsReserved reports whether username may not be registered.
func IsReserved(username string) bool {
	return reserved[strings.ToLower(strings.TrimSpace(username))]
}
