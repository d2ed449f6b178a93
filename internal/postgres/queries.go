package postgres

const (
	queryGetBalance = `
		SELECT balance
		FROM account_balances
		WHERE account_id = $1 AND denomination = $2`

	queryLockBalance = `
		SELECT balance
		FROM account_balances
		WHERE account_id = $1 AND denomination = $2
		FOR UPDATE`

	queryGetAllAccountBalances = `
		SELECT id, account_id, denomination, balance, version, updated_at
		FROM account_balances
		WHERE account_id = $1
		ORDER BY denomination`

	queryAccountExists = `
		SELECT EXISTS (SELECT 1 FROM account_balances WHERE account_id = $1)`

	queryListAccounts = `
		SELECT DISTINCT account_id FROM account_balances ORDER BY account_id`

	queryInitializeAccountBalance = `
		INSERT INTO account_balances (id, account_id, denomination, balance, version)
		VALUES ($1, $2, $3, 0, 1)
		ON CONFLICT (account_id, denomination) DO NOTHING`

	queryUpsertAccountBalance = `
		INSERT INTO account_balances (id, account_id, denomination, balance, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (account_id, denomination) DO UPDATE
		SET balance = EXCLUDED.balance,
			version = account_balances.version + 1,
			updated_at = now()`

	queryReconcileJournal = `
		SELECT COALESCE(SUM(credit_amount - debit_amount), 0)
		FROM journal_entries
		WHERE account_id = $1 AND denomination = $2`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, from_account, to_account, denomination, amount, kind, note, reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_id, denomination, debit_amount, credit_amount, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)`

	queryCheckRedemption = `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE kind = 'cash-in' AND reference = $1)`

	queryTransactionPage = `
		SELECT seq, id, from_account, to_account, denomination, amount, kind, note, reference, created_at
		FROM transactions
		WHERE (from_account = $1 OR to_account = $1) AND seq > $2
		ORDER BY seq ASC
		LIMIT $3`

	queryGetTransactionHistory = `
		SELECT seq, id, from_account, to_account, denomination, amount, kind, note, reference, created_at
		FROM transactions
		WHERE (from_account = $1 OR to_account = $1) AND ($2 = '' OR denomination = $2)
		ORDER BY seq DESC
		LIMIT $3 OFFSET $4`
)
