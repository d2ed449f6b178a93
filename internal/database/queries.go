/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// Balance queries
	queryGetBalance = `
		SELECT balance
		FROM account_balances
		WHERE account_id = ? AND denomination = ?`

	queryGetAllAccountBalances = `
		SELECT id, account_id, denomination, balance, version, updated_at
		FROM account_balances
		WHERE account_id = ?
		ORDER BY denomination`

	queryAccountExists = `
		SELECT 1 FROM account_balances WHERE account_id = ? LIMIT 1`

	queryListAccounts = `
		SELECT DISTINCT account_id FROM account_balances ORDER BY account_id`

	queryGetAccountBalance = `
		SELECT id, balance, version
		FROM account_balances
		WHERE account_id = ? AND denomination = ?`

	queryInitializeAccountBalance = `
		INSERT OR IGNORE INTO account_balances (id, account_id, denomination, balance, version)
		VALUES (?, ?, ?, '0', 1)`

	queryInsertAccountBalance = `
		INSERT INTO account_balances (id, account_id, denomination, balance, version)
		VALUES (?, ?, ?, ?, 1)`

	queryUpdateAccountBalance = `
		UPDATE account_balances
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE account_id = ? AND denomination = ? AND version = ?`

	queryReconcileJournal = `
		SELECT debit_amount, credit_amount
		FROM journal_entries
		WHERE account_id = ? AND denomination = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			id, from_account, to_account, denomination, amount, kind, note, reference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_id, denomination, debit_amount, credit_amount, created_at)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)`

	queryCheckRedemption = `
		SELECT id FROM transactions WHERE kind = 'cash-in' AND reference = ? LIMIT 1`

	queryTransactionPage = `
		SELECT seq, id, from_account, to_account, denomination, amount, kind, note, reference, created_at
		FROM transactions
		WHERE (from_account = ? OR to_account = ?) AND seq > ?
		ORDER BY seq ASC
		LIMIT ?`

	queryGetTransactionHistory = `
		SELECT seq, id, from_account, to_account, denomination, amount, kind, note, reference, created_at
		FROM transactions
		WHERE (from_account = ? OR to_account = ?) AND (? = '' OR denomination = ?)
		ORDER BY seq DESC
		LIMIT ? OFFSET ?`
)
