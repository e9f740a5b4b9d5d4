package sqlinline

// Usage events record pipeline milestones (report.requested,
// report.completed, report.failed). The request_id column carries the job id
// so one job's lifecycle can be traced as a group.
const QInsertUsageEvent = `--sql 7d2c91e5-40ab-4f68-93d1-c6e8f2a05b37
insert into usage_events(id, user_id, request_id, event_type, success, latency_ms, created_at, properties)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::boolean, $5::int, now(), coalesce($6::jsonb, '{}'::jsonb));
`
