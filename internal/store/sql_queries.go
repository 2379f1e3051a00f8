// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package store

const (
	getMetaValue = `
		SELECT value
		FROM vault_meta
		WHERE key_name = $1;`

	upsertMetaValue = `
		INSERT INTO vault_meta (key_name, value)
		VALUES ($1, $2)
		ON CONFLICT (key_name) DO UPDATE SET value = excluded.value;`

	deleteEntryFields = `
		DELETE FROM entry_fields
		WHERE entry_id = $1;`

	getEntryFields = `
		SELECT
			field_key,
			value_enc
		FROM entry_fields
		WHERE entry_id = $1;`

	insertHistory = `
		INSERT INTO password_history (
			entry_id,
			value_enc,
			changed_at
		) VALUES ($1, $2, $3);`

	pruneHistory = `
		DELETE FROM password_history
		WHERE entry_id = $1
		  AND id NOT IN (
			SELECT id FROM password_history
			WHERE entry_id = $2
			ORDER BY changed_at DESC, id DESC
			LIMIT $3);`

	getHistoryByEntry = `
		SELECT
			id,
			entry_id,
			value_enc,
			changed_at
		FROM password_history
		WHERE entry_id = $1
		ORDER BY changed_at DESC, id DESC;`

	deleteAllBackupCodes = `
		DELETE FROM backup_codes;`

	insertBackupCode = `
		INSERT INTO backup_codes (code_hash, used)
		VALUES ($1, FALSE);`

	getUnusedBackupCodes = `
		SELECT
			id,
			code_hash,
			used
		FROM backup_codes
		WHERE used = FALSE
		ORDER BY id;`

	markBackupCodeUsed = `
		UPDATE backup_codes
		SET used = TRUE
		WHERE id = $1;`

	countUnusedBackupCodes = `
		SELECT COUNT(*)
		FROM backup_codes
		WHERE used = FALSE;`
)
