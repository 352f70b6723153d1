//
// fieldcrypt seals sensitive fields and blobs with XChaCha20-Poly1305.
//
// Every namespace gets its own 256-bit key derived from the device secret, so a
// ciphertext produced for one namespace never opens in another.
//
//	keyring, err := fieldcrypt.NewKeyring(secret)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	codec := keyring.Codec(userID)
//
//	sealed, err := codec.Encrypt("what happened")
//	if err != nil {
//		log.Fatal(err)
//	}
//	// sealed looks like `sh1:<hex nonce>:<base64 ciphertext>`
//
//	plaintext, err := codec.Decrypt(sealed)
//	if err != nil {
//		log.Fatal(err) // tampered, foreign or malformed ciphertext
//	}
//

package fieldcrypt
