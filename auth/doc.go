// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides question admin keys.

# Admin Keys

Admin keys use HMAC-SHA256 over the question key:

	adminKey := auth.GenerateAdminKey(questionKey, salt)
	err := auth.ValidateAdminKey(questionKey, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same question key and salt always produce the same key. This allows
validation without storing the key in the database.

The key is returned once, when the question is created, and is required to
finalize the question.
*/
package auth
