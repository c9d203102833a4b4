package auth

import "encoding/base64"

// Credentials are obfuscated, not hashed. The stored value is not treated
// as a secret; the compare is a plain base64 equality check.

func ObfuscateCredential(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func CheckCredential(raw, obfuscated string) bool {
	return ObfuscateCredential(raw) == obfuscated
}
