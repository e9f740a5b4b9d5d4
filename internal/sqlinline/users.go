package sqlinline

const QSelectUserByID = `--sql 1239018e-4f5f-46a0-8f0d-81b2a3a5f0f8
select
    id,
    email,
    name,
    coalesce(locale_pref, properties->>'preferred_locale', 'en') as locale,
    role,
    coalesce((properties->>'reports_requested')::int, 0) as reports_requested,
    created_at,
    updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserIDByEmail = `--sql 9c04e7d1-52b8-4af3-8d60-3b7f1e5a9c28
select id, email from users where lower(email) = lower($1::text) limit 1;
`

const QIncrementReportCounter = `--sql 5a82e2ad-7b09-40c5-9d22-2d28db58c0f0
update users
set properties = jsonb_set(
        properties,
        '{reports_requested}',
        (coalesce((properties->>'reports_requested')::int, 0) + 1)::text::jsonb,
        true
    ),
    updated_at = now()
where id = $1::uuid;
`
