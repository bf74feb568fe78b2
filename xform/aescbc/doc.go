// Package aescbc implements AES in CBC mode with PKCS#7 padding.
//
// Key features:
//   - AES-128/192/256 selected by key length
//   - PKCS#7 padding, always at least one byte, validated in constant time
//   - Validation order is fixed: key, IV, ciphertext length, padding
//
// CBC gives confidentiality only. Use package envelope when the ciphertext
// must also be authenticated.
package aescbc
