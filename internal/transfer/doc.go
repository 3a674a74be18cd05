// Package transfer moves encoded artifacts between webstash and the outside
// world: files on disk and pasteable base64 text.
//
// File names follow the pattern <prefix>-<host>-<unix millis><suffix>,
// where prefix is "storage" for full exports or the backend name for single
// backend exports, and the suffix comes from the artifact's outer format.
//
// ReadFile and DecodeText return a codec.Format hint alongside the bytes so
// the codec can try the likely layer first.
package transfer
