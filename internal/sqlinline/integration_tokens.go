package sqlinline

// Integration tokens hold third-party API keys (openai, gemini, serpapi)
// keyed by provider slug. Env vars take precedence; these rows are the
// fallback managed through cmd/providerkey.
const QSelectIntegrationToken = `--sql c3f8a2d1-95e4-4b07-ba62-1d7e0c4f8a95
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql a1b7d409-62c8-4e35-9f80-5c2d6e91b3a7
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
