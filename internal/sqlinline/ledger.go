package sqlinline

// Debit is a single conditional update so concurrent debits and refunds for
// one account cannot lose updates: the balance check and the mutation happen
// in the same statement. Zero rows back means the account could not cover the
// amount and nothing changed.
const QDebitTokens = `--sql e1c8b3f5-2d90-4a67-b541-8f3e6a2c0d97
update token_accounts
set used_tokens = used_tokens + $2::int, updated_at = now()
where user_id = $1::uuid and total_tokens - used_tokens >= $2::int
returning total_tokens - used_tokens;
`

const QCreditTokens = `--sql a74d0e82-6b1f-4c53-98a2-d5c9f3e7b016
update token_accounts
set total_tokens = total_tokens + $2::int, updated_at = now()
where user_id = $1::uuid
returning total_tokens - used_tokens;
`

// Grants go through an upsert so a first-time grant also creates the account.
const QGrantTokens = `--sql c91b5f04-8a36-4e72-bd15-2f6a0c83d947
insert into token_accounts (user_id, total_tokens, used_tokens)
values ($1::uuid, $2::int, 0)
on conflict (user_id) do update set
    total_tokens = token_accounts.total_tokens + excluded.total_tokens,
    updated_at = now()
returning total_tokens - used_tokens;
`

const QSelectTokenBalance = `--sql 58f2a6c9-1e47-4d08-b39f-7a0d4e8b2c61
select user_id, total_tokens, used_tokens, updated_at
from token_accounts
where user_id = $1::uuid
limit 1;
`
