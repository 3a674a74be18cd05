// Package codec turns a snapshot into a container and back.
//
// Encoding runs serialise, then optionally compress, then optionally
// encrypt. The state space is three-way and each state has a file suffix:
//
//	FormatJSON       .json  plain snapshot text
//	FormatGzip       .gz    gzip of the text
//	FormatEncrypted  .enc   AES-256-GCM of the gzip (or of the text when
//	                        compression fell back)
//
// Encrypted payloads are laid out as
//
//	[16-byte salt][12-byte nonce][ciphertext || 16-byte GCM tag]
//
// with the key derived from the password by PBKDF2-HMAC-SHA256 at 100,000
// iterations. Salt and nonce are fresh on every call.
//
// Decoding takes an optional format hint (usually from a file suffix) and
// otherwise sniffs the bytes: valid JSON first, then the gzip magic, then
// ciphertext if a password is available.
package codec
